package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventKind names a meeting notification
type EventKind string

const (
	EventInterventionStarted       EventKind = "InterventionStarted"
	EventInterventionEnded         EventKind = "InterventionEnded"
	EventInterventionCancelled     EventKind = "InterventionCancelled"
	EventNextInterventionRequested EventKind = "NextInterventionRequested"
	EventAttendeeReadyForVote      EventKind = "AttendeeReadyForVote"
	EventMeetingStatusUpdated      EventKind = "MeetingStatusUpdated"
)

// MeetingEvent is a persisted notification, kept as an audit trail
type MeetingEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	MeetingID uuid.UUID      `gorm:"type:uuid;not null;index" json:"meeting_id"`
	Kind      EventKind      `gorm:"type:varchar(64);not null" json:"kind"`
	Payload   datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"payload"`
	CreatedAt time.Time      `gorm:"default:now();index" json:"created_at"`
}

// TableName specifies the table name for MeetingEvent
func (MeetingEvent) TableName() string {
	return "meeting_events"
}
