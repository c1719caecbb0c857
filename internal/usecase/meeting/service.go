package meeting

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
	"github.com/johnquangdev/assembly-floor/internal/usecase/summary"
	"github.com/johnquangdev/assembly-floor/internal/usecase/txn"
	"github.com/johnquangdev/assembly-floor/pkg/clock"
	"github.com/johnquangdev/assembly-floor/pkg/retry"
)

const (
	codeLength       = 6
	maxCodeAttempts  = 5
	defaultEventPage = 50
)

// Archiver stores the closing snapshot of a meeting
type Archiver interface {
	Archive(ctx context.Context, snapshot *summary.MeetingSummary) error
}

// Service handles the meeting registry
type Service struct {
	meetings  repositories.MeetingRepository
	attendees repositories.AttendeeRepository
	events    repositories.EventRepository
	summaries *summary.Service
	archiver  Archiver
	clock     clock.Clock
	publisher *notification.Publisher
	retry     retry.Policy
	log       *zap.Logger
}

// NewService creates a new meeting service. events and archiver may be nil.
func NewService(
	meetings repositories.MeetingRepository,
	attendees repositories.AttendeeRepository,
	events repositories.EventRepository,
	archiver Archiver,
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
		events:    events,
		summaries: summary.NewService(meetings, attendees),
		archiver:  archiver,
		clock:     clk,
		publisher: publisher,
		retry:     retry.DefaultPolicy,
		log:       log,
	}
}

// NewCode returns a random six character upper-case hex join code
func NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:codeLength])
}

// Create opens a new meeting in the Created status
func (s *Service) Create(ctx context.Context) (*entities.Meeting, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate meeting id: %w", err)
	}
	now := s.clock.Now()

	for attempt := 1; ; attempt++ {
		meeting := &entities.Meeting{
			ID:        id,
			Code:      NewCode(),
			Status:    entities.MeetingStatusCreated,
			StartTime: now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := s.meetings.Create(ctx, meeting)
		if err == nil {
			s.log.Info("meeting.created",
				zap.String("meeting_id", meeting.ID.String()),
			)
			return meeting, nil
		}
		// a duplicate here is a code collision; draw again
		if !errors.Is(err, repositories.ErrDuplicate) || attempt == maxCodeAttempts {
			return nil, fmt.Errorf("failed to create meeting: %w", err)
		}
	}
}

// Get returns a meeting by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ucErrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return meeting, nil
}

// GetLast returns the meeting with the most recent start time
func (s *Service) GetLast(ctx context.Context) (*entities.Meeting, error) {
	meeting, err := s.meetings.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ucErrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to get last meeting: %w", err)
	}
	return meeting, nil
}

// ListIDs returns the id of every known meeting
func (s *Service) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.meetings.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	return ids, nil
}

// Summary returns the derived projection of a meeting
func (s *Service) Summary(ctx context.Context, id uuid.UUID, includeAttendees bool) (*summary.MeetingSummary, error) {
	return s.summaries.Get(ctx, id, includeAttendees)
}

// ListEvents returns the most recent notifications of a meeting, newest first
func (s *Service) ListEvents(ctx context.Context, id uuid.UUID, limit int) ([]*entities.MeetingEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.events == nil {
		return []*entities.MeetingEvent{}, nil
	}
	if limit <= 0 {
		limit = defaultEventPage
	}
	events, err := s.events.ListByMeetingID(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// UpdateStatus moves the meeting to status. Leaving Closed is rejected;
// closing archives a snapshot of the final tallies.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) (*entities.Meeting, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ucErrors.ErrInvalidStatus, status)
	}

	var previous entities.MeetingStatus
	meeting, err := txn.UpdateMeeting(ctx, s.meetings, s.retry, id, func(m *entities.Meeting) error {
		previous = m.Status
		return m.TransitionTo(status, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("meeting.status.updated",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(meeting.Status)),
	)

	if meeting.IsClosed() && previous != entities.MeetingStatusClosed {
		s.archive(ctx, meeting.ID)
	}
	s.publisher.MeetingStatusUpdated(ctx, meeting.ID)
	return meeting, nil
}

func (s *Service) archive(ctx context.Context, id uuid.UUID) {
	if s.archiver == nil {
		return
	}
	snapshot, err := s.summaries.Get(ctx, id, true)
	if err == nil {
		err = s.archiver.Archive(ctx, snapshot)
	}
	if err != nil {
		s.log.Error("meeting.archive.failed",
			zap.String("meeting_id", id.String()),
			zap.Error(err),
		)
	}
}
