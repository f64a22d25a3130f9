package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened to a goal.
type Type string

const (
	GoalCreated  Type = "created"
	GoalUpdated  Type = "updated"
	GoalDeleted  Type = "deleted"
	GoalProgress Type = "progress"
)

// Event is a goal lifecycle notification.
type Event struct {
	ID       string    `json:"id"`
	Type     Type      `json:"type"`
	GoalID   string    `json:"goal_id"`
	Title    string    `json:"title,omitempty"`
	Status   string    `json:"status,omitempty"`
	Progress int       `json:"progress"`
	At       time.Time `json:"at"`
}

// New returns an Event with a fresh ID.
func New(t Type, goalID string, at time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   t,
		GoalID: goalID,
		At:     at.UTC(),
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of each published event, in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
