// Package notificationtest provides an in-memory notifier for tests.
package notificationtest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// Event is one recorded notification
type Event struct {
	MeetingID uuid.UUID
	Kind      entities.EventKind
	Payload   any
}

// Recorder captures every notification it receives
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify records the event
func (r *Recorder) Notify(_ context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{MeetingID: meetingID, Kind: kind, Payload: payload})
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the recorded event kinds in order
func (r *Recorder) Kinds() []entities.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind were recorded
func (r *Recorder) Count(kind entities.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset drops every recorded event
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
