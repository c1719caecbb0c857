// Package realtime pushes meeting events to websocket clients, either
// directly or through Redis pub/sub when several replicas serve a meeting.
package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// Envelope is the message sent to clients for every event
type Envelope struct {
	Event     entities.EventKind `json:"event"`
	MeetingID uuid.UUID          `json:"meeting_id"`
	Payload   json.RawMessage    `json:"payload"`
	SentAt    time.Time          `json:"sent_at"`
}

// Encode builds and marshals an envelope
func Encode(meetingID uuid.UUID, kind entities.EventKind, payload any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{
		Event:     kind,
		MeetingID: meetingID,
		Payload:   raw,
		SentAt:    now.UTC(),
	})
}

// Decode parses a marshalled envelope
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.MeetingID == uuid.Nil || env.Event == "" {
		return nil, fmt.Errorf("envelope missing meeting id or event")
	}
	return &env, nil
}
