package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// Reasons carried by intervention end and cancel events
const (
	ReasonTimeExpired = "TimeExpired"
	ReasonFinished    = "Finished"
	ReasonManual      = "Manual"
)

// InterventionStarted is sent when an attendee takes the floor
type InterventionStarted struct {
	AttendeeID      uuid.UUID  `json:"attendee_id"`
	Name            string     `json:"name"`
	SeatNumber      int        `json:"seat_number"`
	StartTime       *time.Time `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
}

// InterventionEnded is sent when a speaker yields or runs out of time
type InterventionEnded struct {
	AttendeeID uuid.UUID `json:"attendee_id"`
	Name       string    `json:"name"`
	SeatNumber int       `json:"seat_number"`
	Reason     string    `json:"reason"`
}

// InterventionCancelled is sent when a request or intervention is withdrawn
type InterventionCancelled struct {
	AttendeeID uuid.UUID `json:"attendee_id"`
	Name       string    `json:"name"`
	SeatNumber int       `json:"seat_number"`
	Reason     string    `json:"reason"`
}

// NextInterventionRequested is sent when the floor is offered to an attendee
type NextInterventionRequested struct {
	AttendeeID     uuid.UUID  `json:"attendee_id"`
	Name           string     `json:"name"`
	SeatNumber     int        `json:"seat_number"`
	AcceptDeadline *time.Time `json:"accept_deadline"`
}

// AttendeeReadyForVote is sent when an attendee confirms readiness for a round
type AttendeeReadyForVote struct {
	AttendeeID uuid.UUID          `json:"attendee_id"`
	Name       string             `json:"name"`
	SeatNumber int                `json:"seat_number"`
	VoteRound  entities.VoteRound `json:"vote_round"`
	Ready      bool               `json:"ready"`
}
