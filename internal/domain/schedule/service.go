package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/internal/platform/events"
)

// PatientLookup reports whether a patient exists.
type PatientLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo     ScheduleRepository
	patients PatientLookup
	events   events.Publisher
}

func NewService(repo ScheduleRepository, patients PatientLookup, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, patients: patients, events: pub}
}

func (s *Service) validate(ctx context.Context, in *Input) error {
	in.CaregiverName = strings.TrimSpace(in.CaregiverName)
	if in.PatientID == nil || in.CaregiverName == "" || in.StartTime == nil || in.EndTime == nil {
		return apperr.Invalid("patient_id, caregiver_name, start_time and end_time are required")
	}
	if in.CaregiverRole == "" {
		in.CaregiverRole = RoleFamily
	}
	if !validRoles[in.CaregiverRole] {
		return apperr.Invalid(fmt.Sprintf("invalid caregiver_role: %s", in.CaregiverRole))
	}
	if !in.EndTime.After(*in.StartTime) {
		return apperr.Invalid("end_time must be after start_time")
	}
	ok, err := s.patients.Exists(ctx, *in.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Invalid("patient_id does not reference an existing patient")
	}
	return nil
}

func (s *Service) CreateSchedule(ctx context.Context, in Input) (*Schedule, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	sch := &Schedule{}
	in.apply(sch)
	if err := s.repo.Create(ctx, sch); err != nil {
		return nil, err
	}
	s.publish(ctx, "created", sch)
	return sch, nil
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, in Input) (*Schedule, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	sch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(sch)
	if err := s.repo.Update(ctx, sch); err != nil {
		return nil, err
	}
	s.publish(ctx, "updated", sch)
	return sch, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	sch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "deleted", sch)
	return nil
}

func checkRange(f ListFilter) error {
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return apperr.Invalid("to must be after from")
	}
	return nil
}

func (s *Service) ListSchedules(ctx context.Context, f ListFilter, limit, offset int) ([]*Schedule, int, error) {
	if err := checkRange(f); err != nil {
		return nil, 0, err
	}
	return s.repo.Page(ctx, f, limit, offset)
}

// Gaps lists uncovered periods longer than MinGap in a patient's schedule.
func (s *Service) Gaps(ctx context.Context, f ListFilter) ([]Gap, error) {
	if f.PatientID == nil {
		return nil, apperr.Invalid("patient_id is required")
	}
	if err := checkRange(f); err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return DetectGaps(entries, MinGap), nil
}

func (s *Service) publish(ctx context.Context, action string, sch *Schedule) {
	s.events.Publish(ctx, events.New(events.ScheduleChanged, sch.PatientID.String(), map[string]interface{}{
		"action":      action,
		"schedule_id": sch.ID,
		"start_time":  sch.StartTime.Format(time.RFC3339),
		"end_time":    sch.EndTime.Format(time.RFC3339),
	}))
}
