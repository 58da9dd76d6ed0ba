package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/domain/pathway"
	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/events"
)

// ErrMissingFields is the static message for an intake missing required fields.
const ErrMissingFields = "name, diagnosis, adl_score and insurance_type are required"

type Service struct {
	patients PatientRepository
	stages   pathway.StageRepository
	tx       db.TxRunner
	events   events.Publisher
}

func NewService(patients PatientRepository, stages pathway.StageRepository, tx db.TxRunner, pub events.Publisher) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{patients: patients, stages: stages, tx: tx, events: pub}
}

func validateInput(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Diagnosis = strings.TrimSpace(in.Diagnosis)
	if in.Name == "" || in.Diagnosis == "" || in.ADLScore == nil || in.InsuranceType == "" {
		return apperr.Invalid(ErrMissingFields)
	}
	if *in.ADLScore < 0 || *in.ADLScore > 100 {
		return apperr.Invalid("adl_score must be between 0 and 100")
	}
	if !validInsuranceTypes[in.InsuranceType] {
		return apperr.Invalid(fmt.Sprintf("invalid insurance_type: %s", in.InsuranceType))
	}
	if in.LTCGrade != nil && (*in.LTCGrade < 1 || *in.LTCGrade > 5) {
		return apperr.Invalid("ltc_grade must be between 1 and 5")
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > 150) {
		return apperr.Invalid("age must be between 0 and 150")
	}
	in.diagnosisDate = nil
	if in.DiagnosisDate != nil && strings.TrimSpace(*in.DiagnosisDate) != "" {
		d, err := ParseDate(strings.TrimSpace(*in.DiagnosisDate))
		if err != nil {
			return apperr.Invalid("diagnosis_date must be YYYY-MM-DD")
		}
		in.diagnosisDate = &d
	}
	return nil
}

// CreatePatient stores the patient and its generated pathway in one
// transaction.
func (s *Service) CreatePatient(ctx context.Context, in Input) (*WithPathway, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	p := &Patient{}
	in.apply(p)
	stages := pathway.Generate(p.Severity, p.ADLScore)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Create(ctx, p); err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}
		if err := s.stages.CreateAll(ctx, p.ID, stages); err != nil {
			return fmt.Errorf("insert pathway: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(events.PatientCreated, p.ID.String(), map[string]interface{}{
		"severity":       p.Severity,
		"adl_score":      p.ADLScore,
		"pathway_stages": len(stages),
		"pathway_cost":   pathway.TotalCost(stages),
	}))
	return &WithPathway{Patient: p, Pathway: pathway.NewSummary(p.ID, stages)}, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*WithPathway, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stages, err := s.stages.ListByPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load pathway: %w", err)
	}
	return &WithPathway{Patient: p, Pathway: pathway.NewSummary(id, stages)}, nil
}

func (s *Service) ListPatients(ctx context.Context, f ListFilter, limit, offset int) ([]*Patient, int, error) {
	if f.Severity != "" {
		switch pathway.Severity(f.Severity) {
		case pathway.SeverityMild, pathway.SeverityModerate, pathway.SeveritySevere:
		default:
			return nil, 0, apperr.Invalid(fmt.Sprintf("invalid severity: %s", f.Severity))
		}
	}
	return s.patients.List(ctx, f, limit, offset)
}

// UpdatePatient applies an explicit edit and recomputes severity. The
// existing pathway is left untouched.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in Input) (*Patient, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.Severity
	in.apply(p)
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(events.PatientUpdated, p.ID.String(), map[string]interface{}{
		"severity":          p.Severity,
		"previous_severity": previous,
	}))
	return p, nil
}

func (s *Service) GetPathway(ctx context.Context, id uuid.UUID) (*pathway.Summary, error) {
	ok, err := s.patients.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, db.ErrNotFound
	}
	stages, err := s.stages.ListByPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	return pathway.NewSummary(id, stages), nil
}

// Exists reports whether a patient with id exists.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.patients.Exists(ctx, id)
}
