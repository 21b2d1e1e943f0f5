package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Topic string

const (
	TopicBracketCreated Topic = "bracket:created"
	TopicMatchCreated   Topic = "match:created"
	TopicMatchUpdate    Topic = "match:update"
	TopicMatchConfirmed Topic = "match:confirmed"
	TopicMatchApproved  Topic = "match:approved"
)

// Event is a domain notification scoped to one competition.
type Event struct {
	ID            string    `json:"id"`
	Topic         Topic     `json:"topic"`
	CompetitionID int       `json:"competition_id"`
	Payload       any       `json:"payload"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func New(topic Topic, competitionID int, payload any) Event {
	return Event{
		ID:            uuid.NewString(),
		Topic:         topic,
		CompetitionID: competitionID,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
}

// Sink delivers events at most once. Callers log publish errors and carry on.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Topics lists recorded topics in publish order.
func (r *Recorder) Topics() []Topic {
	evs := r.Events()
	out := make([]Topic, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Topic)
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
