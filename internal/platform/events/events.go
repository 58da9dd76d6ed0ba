// Package events publishes domain events such as patient.created.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	PatientCreated   = "patient.created"
	PatientUpdated   = "patient.updated"
	CostSimulated    = "cost.simulated"
	ChecklistCreated = "checklist.generated"
	ChecklistToggled = "checklist.toggled"
	FacilityCreated  = "facility.created"
	ScheduleChanged  = "schedule.changed"
	ReportArchived   = "report.archived"
)

type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// New builds an event, encoding payload as JSON. Unencodable payloads are
// dropped rather than failing the caller.
func New(eventType, aggregateID string, payload interface{}) Event {
	ev := Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
	}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			ev.Payload = b
		}
	}
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type observed struct {
	next    Publisher
	observe func(eventType string, err error)
}

// Observed reports the outcome of every publish to fn.
func Observed(next Publisher, fn func(eventType string, err error)) Publisher {
	return &observed{next: next, observe: fn}
}

func (o *observed) Publish(ctx context.Context, ev Event) error {
	err := o.next.Publish(ctx, ev)
	o.observe(ev.Type, err)
	return err
}

func (o *observed) Close() error { return o.next.Close() }

type bestEffort struct {
	next   Publisher
	logger zerolog.Logger
}

// BestEffort logs publish failures and reports success. Domain writes have
// already committed by the time an event is published.
func BestEffort(next Publisher, logger zerolog.Logger) Publisher {
	return &bestEffort{next: next, logger: logger}
}

func (b *bestEffort) Publish(ctx context.Context, ev Event) error {
	if err := b.next.Publish(ctx, ev); err != nil {
		b.logger.Warn().Err(err).
			Str("event_id", ev.ID).
			Str("event_type", ev.Type).
			Str("aggregate_id", ev.AggregateID).
			Msg("publish event failed")
	}
	return nil
}

func (b *bestEffort) Close() error { return b.next.Close() }
