package checklist

import (
	"time"

	"github.com/google/uuid"
)

// Item maps to the checklist_items table.
type Item struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	PatientID    uuid.UUID    `db:"patient_id" json:"patient_id"`
	TransferType TransferType `db:"transfer_type" json:"transfer_type"`
	SortOrder    int          `db:"sort_order" json:"sort_order"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Category     Category     `db:"category" json:"category"`
	Required     bool         `db:"required" json:"required"`
	Completed    bool         `db:"completed" json:"completed"`
	CompletedAt  *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// Progress summarises completion of a set of items.
type Progress struct {
	Total             int `json:"total"`
	Completed         int `json:"completed"`
	Required          int `json:"required"`
	RequiredCompleted int `json:"required_completed"`
	Percent           int `json:"percent"`
}

// ProgressOf counts items. Percent is completed over total, rounded down.
func ProgressOf(items []*Item) Progress {
	var p Progress
	for _, it := range items {
		p.Total++
		if it.Required {
			p.Required++
		}
		if it.Completed {
			p.Completed++
			if it.Required {
				p.RequiredCompleted++
			}
		}
	}
	if p.Total > 0 {
		p.Percent = p.Completed * 100 / p.Total
	}
	return p
}

// Checklist is a list of items with its progress.
type Checklist struct {
	PatientID    uuid.UUID    `json:"patient_id"`
	TransferType TransferType `json:"transfer_type,omitempty"`
	Items        []*Item      `json:"items"`
	Progress     Progress     `json:"progress"`
}

func newChecklist(patientID uuid.UUID, t TransferType, items []*Item) *Checklist {
	if items == nil {
		items = []*Item{}
	}
	return &Checklist{PatientID: patientID, TransferType: t, Items: items, Progress: ProgressOf(items)}
}

// GenerateRequest is the body of POST /checklists/generate.
type GenerateRequest struct {
	PatientID    *uuid.UUID `json:"patient_id"`
	TransferType string     `json:"transfer_type"`
}
