package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/usecase/summary"
)

// Publisher turns state changes into typed events. Delivery failures are
// logged; they never fail the operation that triggered them.
// A nil *Publisher drops every event.
type Publisher struct {
	notifier      Notifier
	summaries     *summary.Service
	speakingLimit time.Duration
	log           *zap.Logger
}

// NewPublisher creates a publisher
func NewPublisher(notifier Notifier, summaries *summary.Service, speakingLimit time.Duration, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		notifier:      notifier,
		summaries:     summaries,
		speakingLimit: speakingLimit,
		log:           log,
	}
}

func (p *Publisher) send(ctx context.Context, meetingID uuid.UUID, kind entities.EventKind, payload any) {
	if p == nil || p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, meetingID, kind, payload); err != nil {
		p.log.Warn("notification.publish.failed",
			zap.String("meeting_id", meetingID.String()),
			zap.String("event", string(kind)),
			zap.Error(err),
		)
	}
}

// InterventionStarted announces a new speaker
func (p *Publisher) InterventionStarted(ctx context.Context, a *entities.Attendee) {
	if p == nil {
		return
	}
	p.send(ctx, a.MeetingID, entities.EventInterventionStarted, InterventionStarted{
		AttendeeID:      a.ID,
		Name:            a.Name,
		SeatNumber:      a.SeatNumber,
		StartTime:       a.InterventionStartTime,
		DurationMinutes: int(p.speakingLimit / time.Minute),
	})
}

// InterventionEnded announces that a speaker left the floor
func (p *Publisher) InterventionEnded(ctx context.Context, a *entities.Attendee, reason string) {
	p.send(ctx, a.MeetingID, entities.EventInterventionEnded, InterventionEnded{
		AttendeeID: a.ID,
		Name:       a.Name,
		SeatNumber: a.SeatNumber,
		Reason:     reason,
	})
}

// InterventionCancelled announces a withdrawn request or revoked floor
func (p *Publisher) InterventionCancelled(ctx context.Context, a *entities.Attendee) {
	p.send(ctx, a.MeetingID, entities.EventInterventionCancelled, InterventionCancelled{
		AttendeeID: a.ID,
		Name:       a.Name,
		SeatNumber: a.SeatNumber,
		Reason:     ReasonManual,
	})
}

// NextInterventionRequested announces a floor offer
func (p *Publisher) NextInterventionRequested(ctx context.Context, a *entities.Attendee) {
	p.send(ctx, a.MeetingID, entities.EventNextInterventionRequested, NextInterventionRequested{
		AttendeeID:     a.ID,
		Name:           a.Name,
		SeatNumber:     a.SeatNumber,
		AcceptDeadline: a.InterventionAcceptDeadline,
	})
}

// AttendeeReadyForVote announces a readiness confirmation
func (p *Publisher) AttendeeReadyForVote(ctx context.Context, a *entities.Attendee, round entities.VoteRound) {
	p.send(ctx, a.MeetingID, entities.EventAttendeeReadyForVote, AttendeeReadyForVote{
		AttendeeID: a.ID,
		Name:       a.Name,
		SeatNumber: a.SeatNumber,
		VoteRound:  round,
		Ready:      a.ReadyFor(round),
	})
}

// MeetingStatusUpdated broadcasts a fresh summary including every attendee
func (p *Publisher) MeetingStatusUpdated(ctx context.Context, meetingID uuid.UUID) {
	if p == nil || p.summaries == nil {
		return
	}
	s, err := p.summaries.Get(ctx, meetingID, true)
	if err != nil {
		p.log.Warn("notification.summary.failed",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
		return
	}
	p.send(ctx, meetingID, entities.EventMeetingStatusUpdated, s)
}
