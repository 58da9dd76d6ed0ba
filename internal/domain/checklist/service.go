package checklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/events"
)

// PatientLookup reports whether a patient exists.
type PatientLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	items    ItemRepository
	patients PatientLookup
	tx       db.TxRunner
	events   events.Publisher
	now      func() time.Time
}

func NewService(items ItemRepository, patients PatientLookup, tx db.TxRunner, pub events.Publisher) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{items: items, patients: patients, tx: tx, events: pub, now: time.Now}
}

// Generate instantiates the template for the patient. If the patient
// already has items for the transfer type they are returned unchanged and
// created is false.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (cl *Checklist, created bool, err error) {
	if req.PatientID == nil || req.TransferType == "" {
		return nil, false, apperr.Invalid("patient_id and transfer_type are required")
	}
	tt := TransferType(req.TransferType)
	if !ValidTransferType(req.TransferType) {
		return nil, false, apperr.Invalid(fmt.Sprintf("unknown transfer_type: %s", req.TransferType))
	}
	pid := *req.PatientID
	ok, err := s.patients.Exists(ctx, pid)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, db.ErrNotFound
	}

	existing, err := s.items.List(ctx, pid, tt)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return newChecklist(pid, tt, existing), false, nil
	}

	items := Instantiate(tt)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.items.CreateAll(ctx, pid, items)
	})
	if errors.Is(err, db.ErrConflict) {
		// A concurrent request generated the same checklist first.
		existing, lerr := s.items.List(ctx, pid, tt)
		if lerr != nil {
			return nil, false, lerr
		}
		return newChecklist(pid, tt, existing), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert checklist: %w", err)
	}

	cl = newChecklist(pid, tt, items)
	s.events.Publish(ctx, events.New(events.ChecklistCreated, pid.String(), map[string]interface{}{
		"transfer_type": tt,
		"items":         cl.Progress.Total,
		"required":      cl.Progress.Required,
	}))
	return cl, true, nil
}

// List returns the patient's items with a progress summary. An empty
// transferType lists every generated checklist.
func (s *Service) List(ctx context.Context, patientID uuid.UUID, transferType string) (*Checklist, error) {
	if transferType != "" && !ValidTransferType(transferType) {
		return nil, apperr.Invalid(fmt.Sprintf("unknown transfer_type: %s", transferType))
	}
	items, err := s.items.List(ctx, patientID, TransferType(transferType))
	if err != nil {
		return nil, err
	}
	return newChecklist(patientID, TransferType(transferType), items), nil
}

// Toggle flips an item's completion, setting or clearing completed_at.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID) (*Item, error) {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	it.Completed = !it.Completed
	it.CompletedAt = nil
	if it.Completed {
		now := s.now().UTC()
		it.CompletedAt = &now
	}
	if err := s.items.SetCompleted(ctx, id, it.Completed, it.CompletedAt); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(events.ChecklistToggled, it.PatientID.String(), map[string]interface{}{
		"item_id":   it.ID,
		"completed": it.Completed,
	}))
	return it, nil
}
