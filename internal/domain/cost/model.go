package cost

import (
	"time"

	"github.com/google/uuid"
)

// Simulation maps to the cost_simulations table. It is an append-only log
// of estimates run for a patient.
type Simulation struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	FacilityID     *uuid.UUID `db:"facility_id" json:"facility_id,omitempty"`
	FacilityType   string     `db:"facility_type" json:"facility_type"`
	DurationMonths int        `db:"duration_months" json:"duration_months"`
	InsuranceType  string     `db:"insurance_type" json:"insurance_type"`
	LTCGrade       *int       `db:"ltc_grade" json:"ltc_grade,omitempty"`
	Breakdown
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CalculateRequest is the body of POST /api/costs/calculate.
type CalculateRequest struct {
	Input
	PatientID  *uuid.UUID `json:"patient_id,omitempty"`
	FacilityID *uuid.UUID `json:"facility_id,omitempty"`
}

// CalculateResult is the estimate plus the persisted simulation id, if any.
type CalculateResult struct {
	Input
	Breakdown
	SimulationID *uuid.UUID `json:"simulation_id,omitempty"`
}
