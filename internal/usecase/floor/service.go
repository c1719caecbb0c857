package floor

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// Config holds the floor timers
type Config struct {
	AcceptWindow  time.Duration
	SpeakingLimit time.Duration
	StrictAccept  bool
}

// DefaultConfig returns the standard one minute accept window and five minute slot
func DefaultConfig() Config {
	return Config{
		AcceptWindow:  time.Minute,
		SpeakingLimit: 5 * time.Minute,
		StrictAccept:  true,
	}
}

// Result reports what one expiration pass changed
type Result struct {
	ExpiredSpeaker *entities.Attendee
	OfferedNext    *entities.Attendee
	Evicted        []*entities.Attendee
	Changed        bool
}

// errSkip aborts an update whose preconditions no longer hold
var errSkip = errors.New("floor: record changed, skipped")

// Service is the speaking-queue scheduler. Manual calls and the sweeper
// both go through it.
type Service struct {
	meetings  repositories.MeetingRepository
	attendees repositories.AttendeeRepository
	clock     clock.Clock
	cfg       Config
	publisher *notification.Publisher
	retry     retry.Policy
	log       *zap.Logger
}

// NewService creates a floor service
func NewService(
	meetings repositories.MeetingRepository,
	attendees repositories.AttendeeRepository,
	clk clock.Clock,
	cfg Config,
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
		cfg:       cfg,
		publisher: publisher,
		retry:     retry.DefaultPolicy,
		log:       log,
	}
}

// RequestToSpeak puts a registered attendee in the queue
func (s *Service) RequestToSpeak(ctx context.Context, attendeeID uuid.UUID) (*entities.Attendee, error) {
	var changed bool
	attendee, err := s.update(ctx, attendeeID, func(a *entities.Attendee) error {
		var err error
		changed, err = a.RequestToSpeak(s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publisher.MeetingStatusUpdated(ctx, attendee.MeetingID)
	}
	return attendee, nil
}

// PendingInterventions returns the speaking queue in serving order
func (s *Service) PendingInterventions(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	if err := s.ensureMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	pending, err := s.attendees.FindPending(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	return pending, nil
}

// CurrentSpeaker returns the attendee holding the floor, or nil
func (s *Service) CurrentSpeaker(ctx context.Context, meetingID uuid.UUID) (*entities.Attendee, error) {
	if err := s.ensureMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	return s.currentSpeaker(ctx, meetingID)
}

// MoveToNextIntervention offers the floor to the head of the queue.
// Returns nil when the queue is empty.
func (s *Service) MoveToNextIntervention(ctx context.Context, meetingID uuid.UUID) (*entities.Attendee, error) {
	if err := s.ensureMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	next, err := s.offerHead(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		s.publisher.NextInterventionRequested(ctx, next)
		s.publisher.MeetingStatusUpdated(ctx, meetingID)
	}
	return next, nil
}

// AcceptIntervention grants the floor to the attendee
func (s *Service) AcceptIntervention(ctx context.Context, attendeeID uuid.UUID) (*entities.Attendee, error) {
	attendee, err := s.update(ctx, attendeeID, func(a *entities.Attendee) error {
		return a.Accept(s.clock.Now(), s.cfg.StrictAccept)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("floor.intervention.started",
		zap.String("meeting_id", attendee.MeetingID.String()),
		zap.String("attendee_id", attendee.ID.String()),
		zap.Int("seat", attendee.SeatNumber),
	)
	s.publisher.InterventionStarted(ctx, attendee)
	s.publisher.MeetingStatusUpdated(ctx, attendee.MeetingID)
	return attendee, nil
}

// CancelIntervention withdraws the attendee from the queue and the floor,
// then offers the floor to the next attendee if it is free.
func (s *Service) CancelIntervention(ctx context.Context, attendeeID uuid.UUID) (*entities.Attendee, *entities.Attendee, error) {
	attendee, err := s.update(ctx, attendeeID, func(a *entities.Attendee) error {
		a.Reset()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.publisher.InterventionCancelled(ctx, attendee)
	return s.afterRelease(ctx, attendee)
}

// EndIntervention lets the current speaker yield the floor
func (s *Service) EndIntervention(ctx context.Context, attendeeID uuid.UUID) (*entities.Attendee, *entities.Attendee, error) {
	attendee, err := s.update(ctx, attendeeID, func(a *entities.Attendee) error {
		if !a.IsSpeaking() {
			return ucErrors.ErrNotSpeaking
		}
		a.Reset()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.publisher.InterventionEnded(ctx, attendee, notification.ReasonFinished)
	return s.afterRelease(ctx, attendee)
}

func (s *Service) afterRelease(ctx context.Context, released *entities.Attendee) (*entities.Attendee, *entities.Attendee, error) {
	next, err := s.advanceIfFree(ctx, released.MeetingID)
	if err != nil {
		// the release itself succeeded; the next sweep retries the advance
		s.log.Warn("floor.advance.failed",
			zap.String("meeting_id", released.MeetingID.String()),
			zap.Error(err),
		)
		next = nil
	}
	if next != nil {
		s.publisher.NextInterventionRequested(ctx, next)
	}
	s.publisher.MeetingStatusUpdated(ctx, released.MeetingID)
	return released, next, nil
}

// ProcessExpirations runs one expiration pass over a meeting:
//  1. evict attendees whose offer lapsed
//  2. revoke the floor from a speaker past the limit
//  3. offer the floor to the queue head if nobody speaks and no offer is live
//
// Running it again without elapsed time changes nothing.
func (s *Service) ProcessExpirations(ctx context.Context, meetingID uuid.UUID) (*Result, error) {
	now := s.clock.Now()
	result := &Result{}

	evicted, err := s.attendees.EvictExpiredOffers(ctx, meetingID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to evict expired offers: %w", err)
	}
	if len(evicted) > 0 {
		result.Evicted = evicted
		result.Changed = true
	}

	current, err := s.currentSpeaker(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.SpeakingExpired(now, s.cfg.SpeakingLimit) {
		expired, err := s.update(ctx, current.ID, func(a *entities.Attendee) error {
			if !a.SpeakingExpired(now, s.cfg.SpeakingLimit) {
				return errSkip
			}
			a.Reset()
			return nil
		})
		switch {
		case errors.Is(err, errSkip):
		case err != nil:
			return nil, fmt.Errorf("failed to revoke floor: %w", err)
		default:
			result.ExpiredSpeaker = expired
			result.Changed = true
		}
	}

	next, err := s.advanceIfFree(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		result.OfferedNext = next
		result.Changed = true
	}
	return result, nil
}

// Sweep runs ProcessExpirations and publishes what changed
func (s *Service) Sweep(ctx context.Context, meetingID uuid.UUID) (*Result, error) {
	if err := s.ensureMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	result, err := s.ProcessExpirations(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if result.ExpiredSpeaker != nil {
		s.log.Info("floor.intervention.expired",
			zap.String("meeting_id", meetingID.String()),
			zap.String("attendee_id", result.ExpiredSpeaker.ID.String()),
		)
		s.publisher.InterventionEnded(ctx, result.ExpiredSpeaker, notification.ReasonTimeExpired)
	}
	if result.OfferedNext != nil {
		s.publisher.NextInterventionRequested(ctx, result.OfferedNext)
	}
	if result.Changed {
		s.publisher.MeetingStatusUpdated(ctx, meetingID)
	}
	return result, nil
}

// advanceIfFree offers the floor to the queue head only when nobody speaks
// and no offer is still live
func (s *Service) advanceIfFree(ctx context.Context, meetingID uuid.UUID) (*entities.Attendee, error) {
	speaker, err := s.currentSpeaker(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if speaker != nil {
		return nil, nil
	}

	pending, err := s.attendees.FindPending(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	now := s.clock.Now()
	for _, a := range pending {
		if a.HoldsOffer(now) {
			return nil, nil
		}
	}
	return s.offerHead(ctx, meetingID)
}

// offerHead offers the floor to the first attendee still queued
func (s *Service) offerHead(ctx context.Context, meetingID uuid.UUID) (*entities.Attendee, error) {
	pending, err := s.attendees.FindPending(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	for _, candidate := range pending {
		deadline := s.clock.Now().Add(s.cfg.AcceptWindow)
		offered, err := s.update(ctx, candidate.ID, func(a *entities.Attendee) error {
			if !a.IsPending() {
				return errSkip
			}
			a.Offer(deadline)
			return nil
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return offered, nil
	}
	return nil, nil
}

func (s *Service) currentSpeaker(ctx context.Context, meetingID uuid.UUID) (*entities.Attendee, error) {
	speakers, err := s.attendees.FindSpeakers(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current speaker: %w", err)
	}
	if len(speakers) == 0 {
		return nil, nil
	}
	if len(speakers) > 1 {
		s.log.Error("floor.invariant.violated",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("speakers", len(speakers)),
		)
	}
	return speakers[0], nil
}

func (s *Service) ensureMeeting(ctx context.Context, meetingID uuid.UUID) error {
	if _, err := s.meetings.FindByID(ctx, meetingID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ucErrors.ErrMeetingNotFound
		}
		return fmt.Errorf("failed to load meeting: %w", err)
	}
	return nil
}

// update applies fn to one attendee atomically, retrying store conflicts
func (s *Service) update(ctx context.Context, attendeeID uuid.UUID, fn func(*entities.Attendee) error) (*entities.Attendee, error) {
	return txn.UpdateAttendee(ctx, s.attendees, s.retry, attendeeID, fn)
}
