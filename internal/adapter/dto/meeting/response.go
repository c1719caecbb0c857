package meeting

import (
	"encoding/json"
	"time"

	"github.com/johnquangdev/assembly-floor/internal/adapter/dto/attendee"
)

// MeetingResponse represents a meeting in responses
type MeetingResponse struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Status    string     `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// EventResponse represents one stored notification
type EventResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// ExpirationsResponse reports what an expiration pass changed
type ExpirationsResponse struct {
	Changed        bool                         `json:"changed"`
	ExpiredSpeaker *attendee.AttendeeResponse   `json:"expired_speaker,omitempty"`
	OfferedNext    *attendee.AttendeeResponse   `json:"offered_next,omitempty"`
	Evicted        []*attendee.AttendeeResponse `json:"evicted"`
}
