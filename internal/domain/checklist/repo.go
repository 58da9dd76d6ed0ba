package checklist

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ItemRepository interface {
	// CreateAll inserts the items for a patient. Callers wrap it in a
	// transaction so a template is stored whole or not at all.
	CreateAll(ctx context.Context, patientID uuid.UUID, items []*Item) error
	// List returns items in transfer type then sort order. An empty
	// transferType matches every type.
	List(ctx context.Context, patientID uuid.UUID, transferType TransferType) ([]*Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	SetCompleted(ctx context.Context, id uuid.UUID, completed bool, at *time.Time) error
}
