package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FloorState is the explicit speaking state of an attendee
type FloorState string

const (
	FloorStateIdle     FloorState = "idle"
	FloorStateOffered  FloorState = "offered"
	FloorStateSpeaking FloorState = "speaking"
)

// VoteOption is a ballot choice
type VoteOption string

const (
	VoteYes        VoteOption = "yes"
	VoteNo         VoteOption = "no"
	VoteBlank      VoteOption = "blank"
	VoteAbstention VoteOption = "abstention"
)

// IsValid checks if the option is a known ballot choice
func (v VoteOption) IsValid() bool {
	switch v {
	case VoteYes, VoteNo, VoteBlank, VoteAbstention:
		return true
	}
	return false
}

// VoteRound identifies one of the two voting phases
type VoteRound string

const (
	VoteRoundFirst  VoteRound = "First"
	VoteRoundSecond VoteRound = "Second"
)

// Attendee represents a person registered to a meeting seat
type Attendee struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	MeetingID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_attendees_meeting_seat" json:"meeting_id"`
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	SeatNumber       int        `gorm:"not null;uniqueIndex:idx_attendees_meeting_seat" json:"seat_number"`
	IsRegistered     bool       `gorm:"default:false" json:"is_registered"`
	RequestedToSpeak bool       `gorm:"default:false" json:"requested_to_speak"`
	RequestedAt      *time.Time `json:"requested_at,omitempty"`

	// Floor
	FloorState                 FloorState `gorm:"type:varchar(16);not null;default:'idle'" json:"floor_state"`
	InterventionAcceptDeadline *time.Time `json:"intervention_accept_deadline,omitempty"`
	InterventionStartTime      *time.Time `json:"intervention_start_time,omitempty"`

	// Voting
	ReadyForFirstVote  bool        `gorm:"default:false" json:"ready_for_first_vote"`
	ReadyForSecondVote bool        `gorm:"default:false" json:"ready_for_second_vote"`
	Vote               *VoteOption `gorm:"type:varchar(16)" json:"vote,omitempty"`
	SecondVote         *VoteOption `gorm:"type:varchar(16)" json:"second_vote,omitempty"`

	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for Attendee
func (Attendee) TableName() string {
	return "attendees"
}

// MarshalJSON adds the derived speaking flags to the stored fields
func (a Attendee) MarshalJSON() ([]byte, error) {
	type stored Attendee
	return json.Marshal(struct {
		stored
		IsSpeaking           bool `json:"is_speaking"`
		InterventionAccepted bool `json:"intervention_accepted"`
	}{
		stored:               stored(a),
		IsSpeaking:           a.IsSpeaking(),
		InterventionAccepted: a.InterventionAccepted(),
	})
}

// IsSpeaking checks if the attendee currently holds the floor
func (a *Attendee) IsSpeaking() bool {
	return a.FloorState == FloorStateSpeaking
}

// InterventionAccepted mirrors IsSpeaking; an accepted intervention is an active one
func (a *Attendee) InterventionAccepted() bool {
	return a.FloorState == FloorStateSpeaking
}

// IsPending checks if the attendee is waiting in the speaking queue
func (a *Attendee) IsPending() bool {
	return a.RequestedToSpeak && !a.InterventionAccepted()
}

// HoldsOffer checks if the attendee has a floor offer that has not lapsed at now
func (a *Attendee) HoldsOffer(now time.Time) bool {
	return a.RequestedToSpeak &&
		a.FloorState == FloorStateOffered &&
		a.InterventionAcceptDeadline != nil &&
		!now.After(*a.InterventionAcceptDeadline)
}

// OfferExpired checks if an unaccepted offer lapsed strictly before now
func (a *Attendee) OfferExpired(now time.Time) bool {
	return a.RequestedToSpeak &&
		a.FloorState == FloorStateOffered &&
		a.InterventionAcceptDeadline != nil &&
		a.InterventionAcceptDeadline.Before(now)
}

// SpeakingExpired checks if the intervention ran past limit at now
func (a *Attendee) SpeakingExpired(now time.Time, limit time.Duration) bool {
	return a.IsSpeaking() &&
		a.InterventionStartTime != nil &&
		a.InterventionStartTime.Add(limit).Before(now)
}

// MarkAttendance flags the attendee as present
func (a *Attendee) MarkAttendance() bool {
	if a.IsRegistered {
		return false
	}
	a.IsRegistered = true
	return true
}

// RequestToSpeak enqueues the attendee. Re-requesting keeps the original arrival time.
func (a *Attendee) RequestToSpeak(now time.Time) (bool, error) {
	if !a.IsRegistered {
		return false, ErrNotRegistered
	}
	if a.RequestedToSpeak {
		return false, nil
	}
	a.RequestedToSpeak = true
	requested := now
	a.RequestedAt = &requested
	return true, nil
}

// Offer gives the attendee until deadline to accept the floor
func (a *Attendee) Offer(deadline time.Time) {
	a.FloorState = FloorStateOffered
	a.InterventionAcceptDeadline = &deadline
	a.InterventionStartTime = nil
}

// Accept grants the floor. In strict mode the attendee must hold a live offer.
func (a *Attendee) Accept(now time.Time, strict bool) error {
	if strict && !a.HoldsOffer(now) {
		return ErrNoActiveOffer
	}
	start := now
	a.FloorState = FloorStateSpeaking
	a.InterventionStartTime = &start
	a.InterventionAcceptDeadline = nil
	return nil
}

// Reset drops the attendee from the floor and the queue
func (a *Attendee) Reset() {
	a.RequestedToSpeak = false
	a.RequestedAt = nil
	a.FloorState = FloorStateIdle
	a.InterventionAcceptDeadline = nil
	a.InterventionStartTime = nil
}

// CheckFloorState verifies the timestamps agree with the floor state
func (a *Attendee) CheckFloorState() error {
	switch a.FloorState {
	case FloorStateIdle:
		if a.InterventionAcceptDeadline == nil && a.InterventionStartTime == nil {
			return nil
		}
	case FloorStateOffered:
		if a.InterventionAcceptDeadline != nil && a.InterventionStartTime == nil && a.RequestedToSpeak {
			return nil
		}
	case FloorStateSpeaking:
		if a.InterventionStartTime != nil && a.InterventionAcceptDeadline == nil {
			return nil
		}
	}
	return ErrInconsistentFloorState
}

// ReadyFor reports the readiness flag for round
func (a *Attendee) ReadyFor(round VoteRound) bool {
	if round == VoteRoundSecond {
		return a.ReadyForSecondVote
	}
	return a.ReadyForFirstVote
}

// VoteFor returns the ballot cast in round, if any
func (a *Attendee) VoteFor(round VoteRound) *VoteOption {
	if round == VoteRoundSecond {
		return a.SecondVote
	}
	return a.Vote
}

// ConfirmReady sets the readiness flag for round. Re-confirming is a no-op.
func (a *Attendee) ConfirmReady(round VoteRound) (bool, error) {
	if !a.IsRegistered {
		return false, ErrNotRegistered
	}
	if a.ReadyFor(round) {
		return false, nil
	}
	if round == VoteRoundSecond {
		a.ReadyForSecondVote = true
	} else {
		a.ReadyForFirstVote = true
	}
	return true, nil
}

// CastVote records option for round exactly once
func (a *Attendee) CastVote(round VoteRound, option VoteOption) error {
	if !option.IsValid() {
		return ErrInvalidVoteOption
	}
	if !a.ReadyFor(round) {
		if round == VoteRoundSecond {
			return ErrNotReadyForSecondVote
		}
		return ErrNotReadyForFirstVote
	}
	if a.VoteFor(round) != nil {
		if round == VoteRoundSecond {
			return ErrAlreadyVotedSecond
		}
		return ErrAlreadyVotedFirst
	}

	choice := option
	if round == VoteRoundSecond {
		a.SecondVote = &choice
	} else {
		a.Vote = &choice
	}
	return nil
}
