package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// EventRepository defines the interface for the meeting event log
type EventRepository interface {
	// Append stores an event
	Append(ctx context.Context, event *entities.MeetingEvent) error

	// ListByMeetingID returns the latest events of a meeting, newest first
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.MeetingEvent, error)
}
