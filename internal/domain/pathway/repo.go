package pathway

import (
	"context"

	"github.com/google/uuid"
)

type StageRepository interface {
	// CreateAll inserts every stage for the patient. Callers run it in the
	// same transaction as the patient insert.
	CreateAll(ctx context.Context, patientID uuid.UUID, stages []*Stage) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Stage, error)
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}
