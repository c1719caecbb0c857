package entities

import "errors"

// Domain errors
var (
	// Meeting errors
	ErrMeetingClosed        = errors.New("meeting is closed")
	ErrInvalidMeetingStatus = errors.New("invalid meeting status")

	// Floor errors
	ErrNotRegistered          = errors.New("attendance must be marked before requesting the floor")
	ErrNoActiveOffer          = errors.New("attendee does not hold a live floor offer")
	ErrInconsistentFloorState = errors.New("floor state does not match intervention timestamps")

	// Voting errors
	ErrVotingClosed          = errors.New("meeting is not in a voting round")
	ErrNotReadyForFirstVote  = errors.New("readiness for the first vote must be confirmed before voting")
	ErrNotReadyForSecondVote = errors.New("readiness for the second vote must be confirmed before voting")
	ErrAlreadyVotedFirst     = errors.New("vote already cast in the first round")
	ErrAlreadyVotedSecond    = errors.New("vote already cast in the second round")
	ErrInvalidVoteOption     = errors.New("invalid vote option")
)
