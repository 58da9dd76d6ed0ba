package schedule

import (
	"context"

	"github.com/google/uuid"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns every matching entry ordered by start time.
	List(ctx context.Context, f ListFilter) ([]*Schedule, error)
	// Page returns one page of matching entries and the total match count.
	Page(ctx context.Context, f ListFilter, limit, offset int) ([]*Schedule, int, error)
}
