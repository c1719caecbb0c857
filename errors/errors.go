package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the error shape returned by the HTTP layer
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// WithRaw attaches the underlying error
func (e AppError) WithRaw(err error) AppError {
	e.Raw = err
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrPermissionDenied(action string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_PERMISSION_DENIED,
		Message:  fmt.Sprintf("Permission denied: %s", action),
	}
}

func ErrRateLimited() AppError {
	return AppError{
		HTTPCode: http.StatusTooManyRequests,
		Code:     ErrorCode_RATE_LIMITED,
		Message:  "Too many requests, slow down",
	}
}

func ErrServiceUnavailable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_SERVICE_UNAVAILABLE,
		Message:  "Temporarily unavailable, retry the request",
	}
}

// Authentication Errors
func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_TOKEN,
		Message:  "Invalid authentication token",
	}
}

func ErrTokenExpired() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_TOKEN_EXPIRED,
		Message:  "Authentication token has expired",
	}
}

// Meeting Errors
func ErrMeetingNotFound(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_MEETING_NOT_FOUND,
		Message:  "Meeting not found",
	}.WithDetail("meeting_id", meetingID)
}

func ErrInvalidMeetingCode() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_MEETING_INVALID_CODE,
		Message:  "Invalid meeting code",
	}
}

func ErrMeetingClosed() AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_MEETING_CLOSED,
		Message:  "Meeting is closed",
	}
}

func ErrInvalidMeetingStatus(status string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_MEETING_INVALID_STATUS,
		Message:  "Unknown meeting status",
	}.WithDetail("status", status)
}

// Attendee and Floor Errors
func ErrAttendeeNotFound(attendeeID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_ATTENDEE_NOT_FOUND,
		Message:  "Attendee not found",
	}.WithDetail("attendee_id", attendeeID)
}

func ErrAttendeeNotRegistered() AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_ATTENDEE_NOT_REGISTERED,
		Message:  "Attendee attendance has not been marked",
	}
}

func ErrSeatTaken() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ATTENDEE_SEAT_TAKEN,
		Message:  "Seat is already taken in this meeting",
	}
}

func ErrFloorTaken() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_FLOOR_TAKEN,
		Message:  "Another attendee already holds the floor",
	}
}

func ErrNoActiveOffer() AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_FLOOR_NO_ACTIVE_OFFER,
		Message:  "Attendee has no live offer to take the floor",
	}
}

func ErrNotSpeaking() AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_FLOOR_NOT_SPEAKING,
		Message:  "Attendee does not hold the floor",
	}
}

// Voting Errors
func ErrVotingClosed() AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_VOTE_CLOSED,
		Message:  "Voting is closed",
	}
}

func ErrNotReadyForVote(round string) AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_VOTE_NOT_READY,
		Message:  "Attendee has not confirmed readiness for the current round",
	}.WithDetail("vote_round", round)
}

func ErrAlreadyVoted(round string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_VOTE_ALREADY_CAST,
		Message:  "Attendee already voted in the current round",
	}.WithDetail("vote_round", round)
}

func ErrInvalidVoteOption() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_VOTE_INVALID_OPTION,
		Message:  "Vote must be yes, no, blank or abstention",
	}
}

// Integration Errors
func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

// HTTPStatusOK represents a successful HTTP response.
func HTTPStatusOK(message string) AppError {
	return AppError{
		HTTPCode: http.StatusOK,
		Code:     ErrorCode_HTTP_OK,
		Message:  message,
	}
}
