package facility

import (
	"context"

	"github.com/google/uuid"
)

type FacilityRepository interface {
	Create(ctx context.Context, f *Facility) error
	GetByID(ctx context.Context, id uuid.UUID) (*Facility, error)
	Update(ctx context.Context, f *Facility) error
	List(ctx context.Context, limit, offset int) ([]*Facility, int, error)
	Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*Facility, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// InsertIfAbsent inserts f unless a facility with the same name exists.
	InsertIfAbsent(ctx context.Context, f *Facility) (bool, error)
}
