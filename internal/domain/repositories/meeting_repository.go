package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create stores a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID retrieves a meeting by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// FindLatest retrieves the meeting with the most recent start time
	FindLatest(ctx context.Context) (*entities.Meeting, error)

	// ListIDs returns the ID of every known meeting
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// Update applies fn to the locked meeting row and persists the result
	Update(ctx context.Context, id uuid.UUID, fn func(*entities.Meeting) error) (*entities.Meeting, error)
}
