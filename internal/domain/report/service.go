package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/domain/checklist"
	"github.com/carepath/carepath/internal/domain/patient"
	"github.com/carepath/carepath/internal/platform/blobstore"
	"github.com/carepath/carepath/internal/platform/events"
)

type PatientSource interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.WithPathway, error)
}

type ChecklistSource interface {
	List(ctx context.Context, patientID uuid.UUID, transferType string) (*checklist.Checklist, error)
}

type Service struct {
	patients   PatientSource
	checklists ChecklistSource
	blobs      blobstore.BlobStore
	events     events.Publisher
	now        func() time.Time
}

func NewService(patients PatientSource, checklists ChecklistSource, blobs blobstore.BlobStore, pub events.Publisher) *Service {
	if blobs == nil {
		blobs = blobstore.NewInMemoryBlobStore()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{patients: patients, checklists: checklists, blobs: blobs, events: pub, now: time.Now}
}

// Render builds the care-plan report for a patient as an HTML page.
func (s *Service) Render(ctx context.Context, patientID uuid.UUID) ([]byte, error) {
	p, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	cl, err := s.checklists.List(ctx, patientID, "")
	if err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}
	d := Data{Patient: p, Checklist: cl, GeneratedAt: s.now()}
	return RenderHTML("Care plan: "+p.Name, BuildMarkdown(d))
}

func archivePrefix(patientID uuid.UUID) string {
	return "reports/" + patientID.String() + "/"
}

// Archive renders the report and stores it under
// reports/<patient_id>/<timestamp>.html.
func (s *Service) Archive(ctx context.Context, patientID uuid.UUID) (*blobstore.BlobMetadata, error) {
	page, err := s.Render(ctx, patientID)
	if err != nil {
		return nil, err
	}
	key := archivePrefix(patientID) + s.now().UTC().Format("20060102T150405Z") + ".html"
	meta, err := s.blobs.Upload(ctx, key, "text/html; charset=utf-8", bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}

	s.events.Publish(ctx, events.New(events.ReportArchived, patientID.String(), map[string]interface{}{
		"key":  meta.Key,
		"size": meta.Size,
		"hash": meta.Hash,
	}))
	return meta, nil
}

// ListArchives returns the patient's archived reports, newest first.
func (s *Service) ListArchives(ctx context.Context, patientID uuid.UUID) ([]*blobstore.BlobMetadata, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, err
	}
	items, err := s.blobs.List(ctx, archivePrefix(patientID))
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key > items[j].Key })
	if items == nil {
		items = []*blobstore.BlobMetadata{}
	}
	return items, nil
}
