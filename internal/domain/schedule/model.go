package schedule

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleFamily        = "family"
	RolePaidCaregiver = "paid_caregiver"
	RoleNurse         = "nurse"
	RoleVolunteer     = "volunteer"
)

var validRoles = map[string]bool{
	RoleFamily: true, RolePaidCaregiver: true, RoleNurse: true, RoleVolunteer: true,
}

// Schedule maps to the caregiver_schedules table.
type Schedule struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	CaregiverName string    `db:"caregiver_name" json:"caregiver_name"`
	CaregiverRole string    `db:"caregiver_role" json:"caregiver_role"`
	StartTime     time.Time `db:"start_time" json:"start_time"`
	EndTime       time.Time `db:"end_time" json:"end_time"`
	Task          string    `db:"task" json:"task,omitempty"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Input is the body of create and update requests.
type Input struct {
	PatientID     *uuid.UUID `json:"patient_id"`
	CaregiverName string     `json:"caregiver_name"`
	CaregiverRole string     `json:"caregiver_role"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Task          string     `json:"task"`
	Notes         string     `json:"notes"`
}

func (in *Input) apply(s *Schedule) {
	s.PatientID = *in.PatientID
	s.CaregiverName = in.CaregiverName
	s.CaregiverRole = in.CaregiverRole
	s.StartTime = in.StartTime.UTC()
	s.EndTime = in.EndTime.UTC()
	s.Task = in.Task
	s.Notes = in.Notes
}

// ListFilter selects a patient's entries overlapping [From, To). Nil
// bounds are open.
type ListFilter struct {
	PatientID *uuid.UUID
	From      *time.Time
	To        *time.Time
}
