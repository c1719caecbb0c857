package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// Errors shared by every repository implementation
var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule
	// (seat per meeting on create, single speaker per meeting on update)
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned for write conflicts that may succeed on retry
	ErrConflict = errors.New("write conflict")
)

// AttendeeRepository defines the interface for attendee data access
type AttendeeRepository interface {
	// Create stores a new attendee. Returns ErrDuplicate when the seat is taken.
	Create(ctx context.Context, attendee *entities.Attendee) error

	// FindByID retrieves an attendee by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Attendee, error)

	// FindByMeetingID retrieves every attendee of a meeting ordered by seat
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error)

	// FindPending returns the speaking queue: requested and not speaking, ordered by
	// accept deadline (never offered first), then request time, then creation time
	FindPending(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error)

	// FindSpeakers returns attendees holding the floor, earliest start first
	FindSpeakers(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error)

	// Update applies fn to the locked attendee and persists the result.
	// Returns ErrDuplicate if the write would seat a second speaker.
	Update(ctx context.Context, id uuid.UUID, fn func(*entities.Attendee) error) (*entities.Attendee, error)

	// EvictExpiredOffers drops every attendee whose offer lapsed before now from
	// the queue in one statement and returns the evicted rows
	EvictExpiredOffers(ctx context.Context, meetingID uuid.UUID, now time.Time) ([]*entities.Attendee, error)
}
