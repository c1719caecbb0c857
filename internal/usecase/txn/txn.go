// Package txn wraps the per-entity atomic updates of the repositories with
// conflict retries and use-case error mapping.
package txn

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
	ucErrors "github.com/johnquangdev/assembly-floor/internal/usecase/errors"
	"github.com/johnquangdev/assembly-floor/pkg/retry"
)

// UpdateAttendee applies fn to one attendee atomically. Store conflicts are
// retried under policy; errors returned by fn pass through unchanged.
func UpdateAttendee(
	ctx context.Context,
	repo repositories.AttendeeRepository,
	policy retry.Policy,
	attendeeID uuid.UUID,
	fn func(*entities.Attendee) error,
) (*entities.Attendee, error) {
	var attendee *entities.Attendee
	err := retry.Do(ctx, policy, ucErrors.IsRetryable, func() error {
		var err error
		attendee, err = repo.Update(ctx, attendeeID, fn)
		return err
	})
	if err != nil {
		return nil, mapError(err, ucErrors.ErrAttendeeNotFound)
	}
	return attendee, nil
}

// UpdateMeeting applies fn to one meeting atomically
func UpdateMeeting(
	ctx context.Context,
	repo repositories.MeetingRepository,
	policy retry.Policy,
	meetingID uuid.UUID,
	fn func(*entities.Meeting) error,
) (*entities.Meeting, error) {
	var meeting *entities.Meeting
	err := retry.Do(ctx, policy, ucErrors.IsRetryable, func() error {
		var err error
		meeting, err = repo.Update(ctx, meetingID, fn)
		return err
	})
	if err != nil {
		return nil, mapError(err, ucErrors.ErrMeetingNotFound)
	}
	return meeting, nil
}

func mapError(err, notFound error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return notFound
	case errors.Is(err, repositories.ErrDuplicate):
		// the only uniqueness rule an update can break is the single speaker
		return ucErrors.ErrFloorTaken
	case errors.Is(err, repositories.ErrConflict):
		return fmt.Errorf("%w: %v", ucErrors.ErrTransient, err)
	default:
		return err
	}
}
