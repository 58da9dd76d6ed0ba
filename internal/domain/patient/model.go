package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/domain/pathway"
)

var validInsuranceTypes = map[string]bool{
	"employee": true, "local": true, "medical_aid": true,
}

// Patient maps to the patients table. Severity is always derived from
// ADLScore and never taken from client input.
type Patient struct {
	ID                 uuid.UUID        `db:"id" json:"id"`
	Name               string           `db:"name" json:"name"`
	Diagnosis          string           `db:"diagnosis" json:"diagnosis"`
	DiagnosisDate      *Date            `db:"diagnosis_date" json:"diagnosis_date,omitempty"`
	Age                *int             `db:"age" json:"age,omitempty"`
	ADLScore           int              `db:"adl_score" json:"adl_score"`
	ConsciousnessLevel *string          `db:"consciousness_level" json:"consciousness_level,omitempty"`
	Severity           pathway.Severity `db:"severity" json:"severity"`
	InsuranceType      string           `db:"insurance_type" json:"insurance_type"`
	LTCGrade           *int             `db:"ltc_grade" json:"ltc_grade,omitempty"`
	CurrentHospital    *string          `db:"current_hospital" json:"current_hospital,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// Input is the client-editable part of a patient, used for both create and
// update. ADLScore is a pointer so a missing score is distinguishable from 0.
// DiagnosisDate is parsed by validateInput into diagnosisDate.
type Input struct {
	Name               string  `json:"name"`
	Diagnosis          string  `json:"diagnosis"`
	DiagnosisDate      *string `json:"diagnosis_date,omitempty"`
	Age                *int    `json:"age,omitempty"`
	ADLScore           *int    `json:"adl_score"`
	ConsciousnessLevel *string `json:"consciousness_level,omitempty"`
	InsuranceType      string  `json:"insurance_type"`
	LTCGrade           *int    `json:"ltc_grade,omitempty"`
	CurrentHospital    *string `json:"current_hospital,omitempty"`

	diagnosisDate *Date
}

// apply copies the input onto p and recomputes severity.
func (in *Input) apply(p *Patient) {
	p.Name = in.Name
	p.Diagnosis = in.Diagnosis
	p.DiagnosisDate = in.diagnosisDate
	p.Age = in.Age
	p.ADLScore = *in.ADLScore
	p.ConsciousnessLevel = in.ConsciousnessLevel
	p.InsuranceType = in.InsuranceType
	p.LTCGrade = in.LTCGrade
	p.CurrentHospital = in.CurrentHospital
	p.Severity = pathway.ClassifySeverity(p.ADLScore)
}

// WithPathway is a patient joined with its ordered pathway.
type WithPathway struct {
	*Patient
	Pathway *pathway.Summary `json:"pathway"`
}

// ListFilter narrows a patient listing.
type ListFilter struct {
	Severity string
	Search   string
}
