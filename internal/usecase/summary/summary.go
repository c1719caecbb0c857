package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
	ucErrors "github.com/johnquangdev/assembly-floor/internal/usecase/errors"
)

// Tally counts the ballots of one round
type Tally struct {
	Yes        int `json:"yes"`
	No         int `json:"no"`
	Blank      int `json:"blank"`
	Abstention int `json:"abstention"`
}

// Total returns the number of ballots cast
func (t Tally) Total() int {
	return t.Yes + t.No + t.Blank + t.Abstention
}

func (t *Tally) add(v *entities.VoteOption) {
	if v == nil {
		return
	}
	switch *v {
	case entities.VoteYes:
		t.Yes++
	case entities.VoteNo:
		t.No++
	case entities.VoteBlank:
		t.Blank++
	case entities.VoteAbstention:
		t.Abstention++
	}
}

// MeetingSummary is a read-only projection over a meeting and its attendees.
// It is recomputed on every call and never stored.
type MeetingSummary struct {
	ID                      uuid.UUID              `json:"id"`
	Code                    string                 `json:"code"`
	Status                  entities.MeetingStatus `json:"status"`
	StartTime               time.Time              `json:"start_time"`
	EndTime                 *time.Time             `json:"end_time,omitempty"`
	TotalAttendees          int                    `json:"total_attendees"`
	RegisteredCount         int                    `json:"registered_count"`
	PendingInterventions    int                    `json:"pending_interventions"`
	FirstRound              Tally                  `json:"first_round"`
	SecondRound             Tally                  `json:"second_round"`
	ReadyForFirstVoteCount  int                    `json:"ready_for_first_vote_count"`
	ReadyForSecondVoteCount int                    `json:"ready_for_second_vote_count"`
	CurrentSpeaker          *entities.Attendee     `json:"current_speaker,omitempty"`
	Attendees               []*entities.Attendee   `json:"attendees,omitempty"`
}

// Build derives the summary from a meeting and its attendees
func Build(meeting *entities.Meeting, attendees []*entities.Attendee, includeAttendees bool) *MeetingSummary {
	s := &MeetingSummary{
		ID:             meeting.ID,
		Code:           meeting.Code,
		Status:         meeting.Status,
		StartTime:      meeting.StartTime,
		EndTime:        meeting.EndTime,
		TotalAttendees: len(attendees),
	}

	for _, a := range attendees {
		if a.IsRegistered {
			s.RegisteredCount++
		}
		if a.IsPending() {
			s.PendingInterventions++
		}
		if a.ReadyForFirstVote {
			s.ReadyForFirstVoteCount++
		}
		if a.ReadyForSecondVote {
			s.ReadyForSecondVoteCount++
		}
		s.FirstRound.add(a.Vote)
		s.SecondRound.add(a.SecondVote)

		if a.IsSpeaking() && (s.CurrentSpeaker == nil || startedBefore(a, s.CurrentSpeaker)) {
			s.CurrentSpeaker = a
		}
	}

	if includeAttendees {
		s.Attendees = attendees
	}
	return s
}

func startedBefore(a, b *entities.Attendee) bool {
	if a.InterventionStartTime == nil || b.InterventionStartTime == nil {
		return false
	}
	return a.InterventionStartTime.Before(*b.InterventionStartTime)
}

// Service loads meetings and builds summaries
type Service struct {
	meetings  repositories.MeetingRepository
	attendees repositories.AttendeeRepository
}

// NewService creates a summary service
func NewService(meetings repositories.MeetingRepository, attendees repositories.AttendeeRepository) *Service {
	return &Service{meetings: meetings, attendees: attendees}
}

// Get builds the current summary of a meeting
func (s *Service) Get(ctx context.Context, meetingID uuid.UUID, includeAttendees bool) (*MeetingSummary, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ucErrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}

	attendees, err := s.attendees.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendees: %w", err)
	}
	return Build(meeting, attendees, includeAttendees), nil
}
