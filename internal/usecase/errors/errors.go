package errors

import (
	"context"
	"errors"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden access")
)

// Meeting errors
var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrInvalidCode     = errors.New("invalid meeting code")
	// ErrRegistrationClosed is returned when registering against a closed meeting
	ErrRegistrationClosed = errors.New("meeting is closed for registration")
	ErrMeetingClosed      = entities.ErrMeetingClosed
	ErrInvalidStatus      = entities.ErrInvalidMeetingStatus
)

// Attendee and floor errors
var (
	ErrAttendeeNotFound = errors.New("attendee not found")
	ErrSeatTaken        = errors.New("seat already taken in this meeting")
	ErrNotRegistered    = entities.ErrNotRegistered
	ErrNoActiveOffer    = entities.ErrNoActiveOffer
	ErrFloorTaken       = errors.New("another attendee already holds the floor")
	ErrNotSpeaking      = errors.New("attendee does not hold the floor")
)

// Voting errors
var (
	ErrVotingClosed = entities.ErrVotingClosed
)

// Store errors
var (
	ErrTransient = errors.New("temporary store conflict, retry the request")
)

// Kind groups errors into the categories callers act on
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindPreconditionFailed
	KindTransient
	KindInvalidInput
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindPreconditionFailed:
		return "PreconditionFailed"
	case KindTransient:
		return "Transient"
	case KindInvalidInput:
		return "InvalidInput"
	default:
		return "Internal"
	}
}

var preconditionErrors = []error{
	ErrSeatTaken,
	ErrFloorTaken,
	ErrNotSpeaking,
	entities.ErrMeetingClosed,
	entities.ErrNotRegistered,
	entities.ErrNoActiveOffer,
	entities.ErrVotingClosed,
	entities.ErrNotReadyForFirstVote,
	entities.ErrNotReadyForSecondVote,
	entities.ErrAlreadyVotedFirst,
	entities.ErrAlreadyVotedSecond,
}

// Classify maps an error from any layer to its Kind
func Classify(err error) Kind {
	if err == nil {
		return KindInternal
	}

	switch {
	case errors.Is(err, ErrMeetingNotFound),
		errors.Is(err, ErrAttendeeNotFound),
		errors.Is(err, repositories.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrRegistrationClosed),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden):
		return KindUnauthorized
	case errors.Is(err, ErrTransient),
		errors.Is(err, repositories.ErrConflict),
		errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, entities.ErrInvalidMeetingStatus),
		errors.Is(err, entities.ErrInvalidVoteOption):
		return KindInvalidInput
	}

	for _, target := range preconditionErrors {
		if errors.Is(err, target) {
			return KindPreconditionFailed
		}
	}
	return KindInternal
}

// IsRetryable reports whether err is a store conflict worth retrying
func IsRetryable(err error) bool {
	return errors.Is(err, repositories.ErrConflict)
}
