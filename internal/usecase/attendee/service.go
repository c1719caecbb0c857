package attendee

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
	ucErrors "github.com/johnquangdev/assembly-floor/internal/usecase/errors"
	"github.com/johnquangdev/assembly-floor/internal/usecase/notification"
	"github.com/johnquangdev/assembly-floor/internal/usecase/txn"
	"github.com/johnquangdev/assembly-floor/pkg/clock"
	"github.com/johnquangdev/assembly-floor/pkg/retry"
)

// Service handles attendee registration and attendance
type Service struct {
	meetings  repositories.MeetingRepository
	attendees repositories.AttendeeRepository
	clock     clock.Clock
	publisher *notification.Publisher
	retry     retry.Policy
	log       *zap.Logger
}

// NewService creates a new attendee service
func NewService(
	meetings repositories.MeetingRepository,
	attendees repositories.AttendeeRepository,
	clk clock.Clock,
	publisher *notification.Publisher,
	log *zap.Logger,
) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		meetings:  meetings,
		attendees: attendees,
		clock:     clk,
		publisher: publisher,
		retry:     retry.DefaultPolicy,
		log:       log,
	}
}

// RegisterInput represents input for registering an attendee
type RegisterInput struct {
	Name        string
	SeatNumber  int
	MeetingID   uuid.UUID
	MeetingCode string
}

// Register creates an attendee in a seat of an open meeting.
// The attendee still has to be marked present before speaking or voting.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*entities.Attendee, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.SeatNumber < 1 {
		return nil, fmt.Errorf("%w: name and a positive seat number are required", ucErrors.ErrInvalidInput)
	}

	meeting, err := s.meetings.FindByID(ctx, input.MeetingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// unknown meeting and wrong code are indistinguishable to the caller
			return nil, ucErrors.ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}
	if !meeting.MatchesCode(input.MeetingCode) {
		return nil, ucErrors.ErrInvalidCode
	}
	if meeting.IsClosed() {
		return nil, ucErrors.ErrRegistrationClosed
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate attendee id: %w", err)
	}
	now := s.clock.Now()
	attendee := &entities.Attendee{
		ID:         id,
		MeetingID:  meeting.ID,
		Name:       name,
		SeatNumber: input.SeatNumber,
		FloorState: entities.FloorStateIdle,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.attendees.Create(ctx, attendee); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: seat %d", ucErrors.ErrSeatTaken, input.SeatNumber)
		}
		return nil, fmt.Errorf("failed to create attendee: %w", err)
	}

	s.log.Info("attendee.registered",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("attendee_id", attendee.ID.String()),
		zap.Int("seat", attendee.SeatNumber),
	)
	s.publisher.MeetingStatusUpdated(ctx, meeting.ID)
	return attendee, nil
}

// MarkAttendance flags a registered attendee as present
func (s *Service) MarkAttendance(ctx context.Context, attendeeID uuid.UUID) (*entities.Attendee, error) {
	var changed bool
	attendee, err := txn.UpdateAttendee(ctx, s.attendees, s.retry, attendeeID, func(a *entities.Attendee) error {
		changed = a.MarkAttendance()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publisher.MeetingStatusUpdated(ctx, attendee.MeetingID)
	}
	return attendee, nil
}

// Get returns one attendee
func (s *Service) Get(ctx context.Context, attendeeID uuid.UUID) (*entities.Attendee, error) {
	attendee, err := s.attendees.FindByID(ctx, attendeeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ucErrors.ErrAttendeeNotFound
		}
		return nil, fmt.Errorf("failed to get attendee: %w", err)
	}
	return attendee, nil
}

// ListByMeeting returns the attendees of a meeting in seat order
func (s *Service) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	if _, err := s.meetings.FindByID(ctx, meetingID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ucErrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}
	attendees, err := s.attendees.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	return attendees, nil
}
