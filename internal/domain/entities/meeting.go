package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingStatus represents the lifecycle phase of an assembly
type MeetingStatus string

const (
	MeetingStatusCreated              MeetingStatus = "created"
	MeetingStatusStarted              MeetingStatus = "started"
	MeetingStatusRegistration         MeetingStatus = "registration"
	MeetingStatusClosingInterventions MeetingStatus = "closing_interventions"
	MeetingStatusOpeningInterventions MeetingStatus = "opening_interventions"
	MeetingStatusFirstVoting          MeetingStatus = "first_voting"
	MeetingStatusSecondVoting         MeetingStatus = "second_voting"
	MeetingStatusCountingVotes        MeetingStatus = "counting_votes"
	MeetingStatusClosed               MeetingStatus = "closed"
)

var meetingStatusOrder = []MeetingStatus{
	MeetingStatusCreated,
	MeetingStatusStarted,
	MeetingStatusRegistration,
	MeetingStatusClosingInterventions,
	MeetingStatusOpeningInterventions,
	MeetingStatusFirstVoting,
	MeetingStatusSecondVoting,
	MeetingStatusCountingVotes,
	MeetingStatusClosed,
}

// MeetingStatuses returns every status in lifecycle order
func MeetingStatuses() []MeetingStatus {
	out := make([]MeetingStatus, len(meetingStatusOrder))
	copy(out, meetingStatusOrder)
	return out
}

// Order returns the position of the status in the lifecycle, or -1 if unknown
func (s MeetingStatus) Order() int {
	for i, st := range meetingStatusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// IsValid checks if the status is one of the known lifecycle phases
func (s MeetingStatus) IsValid() bool {
	return s.Order() >= 0
}

// VoteRound returns the round open in this status, if any
func (s MeetingStatus) VoteRound() (VoteRound, bool) {
	switch s {
	case MeetingStatusFirstVoting:
		return VoteRoundFirst, true
	case MeetingStatusSecondVoting:
		return VoteRoundSecond, true
	default:
		return "", false
	}
}

// Meeting represents an assembly session
type Meeting struct {
	ID        uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	Code      string        `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"`
	Status    MeetingStatus `gorm:"type:varchar(32);not null;default:'created';index" json:"status"`
	StartTime time.Time     `gorm:"not null;index" json:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	CreatedAt time.Time     `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time     `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// IsClosed checks if the meeting has reached its terminal status
func (m *Meeting) IsClosed() bool {
	return m.Status == MeetingStatusClosed
}

// MatchesCode compares the join code case-sensitively
func (m *Meeting) MatchesCode(code string) bool {
	return code != "" && m.Code == code
}

// TransitionTo moves the meeting to a new status.
// Closed is terminal and entering it stamps EndTime.
func (m *Meeting) TransitionTo(status MeetingStatus, now time.Time) error {
	if !status.IsValid() {
		return ErrInvalidMeetingStatus
	}
	if m.IsClosed() && status != MeetingStatusClosed {
		return ErrMeetingClosed
	}

	m.Status = status
	if status == MeetingStatusClosed {
		if m.EndTime == nil {
			end := now
			m.EndTime = &end
		}
	} else {
		m.EndTime = nil
	}
	return nil
}
