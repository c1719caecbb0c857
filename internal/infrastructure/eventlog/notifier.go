// Package eventlog persists every meeting notification as an audit trail.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
	"github.com/johnquangdev/assembly-floor/pkg/clock"
)

// Notifier appends each event to the event repository
type Notifier struct {
	events repositories.EventRepository
	clock  clock.Clock
}

// NewNotifier creates an event log notifier
func NewNotifier(events repositories.EventRepository, clk clock.Clock) *Notifier {
	if clk == nil {
		clk = clock.System{}
	}
	return &Notifier{events: events, clock: clk}
}

// Notify stores the event with its JSON payload
func (n *Notifier) Notify(ctx context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate event id: %w", err)
	}

	event := &entities.MeetingEvent{
		ID:        id,
		MeetingID: meetingID,
		Kind:      kind,
		Payload:   datatypes.JSON(raw),
		CreatedAt: n.clock.Now(),
	}
	if err := n.events.Append(ctx, event); err != nil {
		return fmt.Errorf("failed to append %s event: %w", kind, err)
	}
	return nil
}
