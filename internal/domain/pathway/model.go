package pathway

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the ADL-derived bucket that selects a pathway.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// StageType is the kind of facility a pathway stage takes place in.
type StageType string

const (
	StageAcute           StageType = "acute"
	StageRehabilitation  StageType = "rehabilitation"
	StageNursingHospital StageType = "nursing_hospital"
	StageNursingHome     StageType = "nursing_home"
	StageHome            StageType = "home"
)

var validStageTypes = map[StageType]bool{
	StageAcute: true, StageRehabilitation: true, StageNursingHospital: true,
	StageNursingHome: true, StageHome: true,
}

// ValidStageType reports whether s names a known facility/stage type.
func ValidStageType(s string) bool {
	return validStageTypes[StageType(s)]
}

// Stage maps to the care_pathways table. EstimatedCost is in KRW.
type Stage struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	PatientID             uuid.UUID `db:"patient_id" json:"patient_id"`
	StepOrder             int       `db:"step_order" json:"step_order"`
	StageType             StageType `db:"stage_type" json:"stage_type"`
	DurationWeeks         int       `db:"duration_weeks" json:"duration_weeks"`
	TreatmentGoal         string    `db:"treatment_goal" json:"treatment_goal"`
	EstimatedCost         int64     `db:"estimated_cost" json:"estimated_cost"`
	LTCApplicationAdvised bool      `db:"ltc_application_advised" json:"ltc_application_advised"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// Summary is a patient's ordered pathway with its total estimated cost.
type Summary struct {
	PatientID    uuid.UUID `json:"patient_id"`
	Stages       []*Stage  `json:"stages"`
	TotalCost    int64     `json:"total_cost"`
	TotalWeeks   int       `json:"total_weeks"`
	LTCAdvisedAt *int      `json:"ltc_advised_at_step,omitempty"`
}

// NewSummary totals the stages. Stages must already be in step order.
func NewSummary(patientID uuid.UUID, stages []*Stage) *Summary {
	s := &Summary{PatientID: patientID, Stages: stages}
	if s.Stages == nil {
		s.Stages = []*Stage{}
	}
	for _, st := range stages {
		s.TotalCost += st.EstimatedCost
		s.TotalWeeks += st.DurationWeeks
		if st.LTCApplicationAdvised && s.LTCAdvisedAt == nil {
			step := st.StepOrder
			s.LTCAdvisedAt = &step
		}
	}
	return s
}
