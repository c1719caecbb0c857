// Package voting implements the two-round vote ledger. The open round is
// taken from the meeting status, never from the caller.
package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
	ucErrors "github.com/johnquangdev/assembly-floor/internal/usecase/errors"
	"github.com/johnquangdev/assembly-floor/internal/usecase/notification"
	"github.com/johnquangdev/assembly-floor/internal/usecase/txn"
	"github.com/johnquangdev/assembly-floor/pkg/retry"
)

// Service records readiness confirmations and ballots
type Service struct {
	meetings  repositories.MeetingRepository
	attendees repositories.AttendeeRepository
	publisher *notification.Publisher
	retry     retry.Policy
	log       *zap.Logger
}

// NewService creates a voting service
func NewService(
	meetings repositories.MeetingRepository,
	attendees repositories.AttendeeRepository,
	publisher *notification.Publisher,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		meetings:  meetings,
		attendees: attendees,
		publisher: publisher,
		retry:     retry.DefaultPolicy,
		log:       log,
	}
}

// ConfirmReady sets the attendee's readiness flag for round.
// Confirming twice, even after voting, is a silent no-op.
func (s *Service) ConfirmReady(ctx context.Context, attendeeID uuid.UUID, round entities.VoteRound) (*entities.Attendee, error) {
	if round != entities.VoteRoundFirst && round != entities.VoteRoundSecond {
		return nil, fmt.Errorf("%w: unknown vote round %q", ucErrors.ErrInvalidInput, round)
	}

	var changed bool
	attendee, err := txn.UpdateAttendee(ctx, s.attendees, s.retry, attendeeID, func(a *entities.Attendee) error {
		var err error
		changed, err = a.ConfirmReady(round)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publisher.AttendeeReadyForVote(ctx, attendee, round)
		s.publisher.MeetingStatusUpdated(ctx, attendee.MeetingID)
	}
	return attendee, nil
}

// CastVote records option for the round the meeting currently has open
func (s *Service) CastVote(ctx context.Context, attendeeID uuid.UUID, option entities.VoteOption) (*entities.Attendee, error) {
	if !option.IsValid() {
		return nil, entities.ErrInvalidVoteOption
	}

	current, err := s.attendees.FindByID(ctx, attendeeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ucErrors.ErrAttendeeNotFound
		}
		return nil, fmt.Errorf("failed to load attendee: %w", err)
	}

	meeting, err := s.meetings.FindByID(ctx, current.MeetingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ucErrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}
	round, open := meeting.Status.VoteRound()
	if !open {
		return nil, ucErrors.ErrVotingClosed
	}

	attendee, err := txn.UpdateAttendee(ctx, s.attendees, s.retry, attendeeID, func(a *entities.Attendee) error {
		return a.CastVote(round, option)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("voting.vote.cast",
		zap.String("meeting_id", attendee.MeetingID.String()),
		zap.String("attendee_id", attendee.ID.String()),
		zap.String("round", string(round)),
	)
	s.publisher.MeetingStatusUpdated(ctx, attendee.MeetingID)
	return attendee, nil
}
