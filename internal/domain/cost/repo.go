package cost

import (
	"context"

	"github.com/google/uuid"
)

type SimulationRepository interface {
	Create(ctx context.Context, s *Simulation) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Simulation, int, error)
}
