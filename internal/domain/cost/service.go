package cost

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/events"
)

// Lookup checks that a referenced record exists.
type Lookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	sims       SimulationRepository
	patients   Lookup
	facilities Lookup
	events     events.Publisher
}

func NewService(sims SimulationRepository, patients, facilities Lookup, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{sims: sims, patients: patients, facilities: facilities, events: pub}
}

func validateInput(in Input) error {
	if in.FacilityType == "" {
		return apperr.Invalid("facility_type is required")
	}
	if in.InsuranceType == "" {
		return apperr.Invalid("insurance_type is required")
	}
	return nil
}

// Calculate runs the estimator and, when a patient is given, logs the
// result as a simulation.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (*CalculateResult, error) {
	if err := validateInput(req.Input); err != nil {
		return nil, err
	}
	b, err := Estimate(req.Input)
	if errors.Is(err, ErrInvalidDuration) || errors.Is(err, ErrInvalidLTCGrade) {
		return nil, apperr.Invalid(err.Error())
	}
	if err != nil {
		return nil, err
	}

	result := &CalculateResult{Input: req.Input, Breakdown: b}
	if req.PatientID == nil {
		return result, nil
	}

	if err := s.mustExist(ctx, s.patients, *req.PatientID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.Invalid("patient_id does not reference a known patient")
		}
		return nil, fmt.Errorf("patient %s: %w", *req.PatientID, err)
	}
	if req.FacilityID != nil {
		if err := s.mustExist(ctx, s.facilities, *req.FacilityID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, apperr.Invalid("facility_id does not reference a known facility")
			}
			return nil, err
		}
	}

	sim := &Simulation{
		PatientID:      *req.PatientID,
		FacilityID:     req.FacilityID,
		FacilityType:   req.FacilityType,
		DurationMonths: req.DurationMonths,
		InsuranceType:  req.InsuranceType,
		LTCGrade:       req.LTCGrade,
		Breakdown:      b,
	}
	if err := s.sims.Create(ctx, sim); err != nil {
		return nil, fmt.Errorf("save simulation: %w", err)
	}
	result.SimulationID = &sim.ID

	s.events.Publish(ctx, events.New(events.CostSimulated, sim.PatientID.String(), map[string]interface{}{
		"simulation_id": sim.ID,
		"facility_type": sim.FacilityType,
		"total_cost":    sim.TotalCost,
	}))
	return result, nil
}

func (s *Service) mustExist(ctx context.Context, l Lookup, id uuid.UUID) error {
	if l == nil {
		return nil
	}
	ok, err := l.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return db.ErrNotFound
	}
	return nil
}

func (s *Service) ListSimulations(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Simulation, int, error) {
	return s.sims.ListByPatient(ctx, patientID, limit, offset)
}
