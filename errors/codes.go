package errors

// ErrorCode identifies an application error in API responses
type ErrorCode int32

// General codes
const (
	ErrorCode_UNSPECIFIED         ErrorCode = 0
	ErrorCode_HTTP_OK             ErrorCode = 200
	ErrorCode_INTERNAL            ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT    ErrorCode = 1001
	ErrorCode_INVALID_PAYLOAD     ErrorCode = 1002
	ErrorCode_NOT_FOUND           ErrorCode = 1003
	ErrorCode_UNAUTHENTICATED     ErrorCode = 1004
	ErrorCode_PERMISSION_DENIED   ErrorCode = 1005
	ErrorCode_RATE_LIMITED        ErrorCode = 1006
	ErrorCode_SERVICE_UNAVAILABLE ErrorCode = 1007
)

// Authentication codes
const (
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2001
)

// Meeting codes
const (
	ErrorCode_MEETING_NOT_FOUND      ErrorCode = 3000
	ErrorCode_MEETING_INVALID_CODE   ErrorCode = 3001
	ErrorCode_MEETING_CLOSED         ErrorCode = 3002
	ErrorCode_MEETING_INVALID_STATUS ErrorCode = 3003
)

// Attendee and floor codes
const (
	ErrorCode_ATTENDEE_NOT_FOUND      ErrorCode = 4000
	ErrorCode_ATTENDEE_NOT_REGISTERED ErrorCode = 4001
	ErrorCode_ATTENDEE_SEAT_TAKEN     ErrorCode = 4002
	ErrorCode_FLOOR_TAKEN             ErrorCode = 4003
	ErrorCode_FLOOR_NO_ACTIVE_OFFER   ErrorCode = 4004
	ErrorCode_FLOOR_NOT_SPEAKING      ErrorCode = 4005
)

// Voting codes
const (
	ErrorCode_VOTE_CLOSED         ErrorCode = 5000
	ErrorCode_VOTE_NOT_READY      ErrorCode = 5001
	ErrorCode_VOTE_ALREADY_CAST   ErrorCode = 5002
	ErrorCode_VOTE_INVALID_OPTION ErrorCode = 5003
)

// Integration codes
const (
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 6000
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                "UNSPECIFIED",
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_RATE_LIMITED:               "RATE_LIMITED",
	ErrorCode_SERVICE_UNAVAILABLE:        "SERVICE_UNAVAILABLE",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_MEETING_NOT_FOUND:          "MEETING_NOT_FOUND",
	ErrorCode_MEETING_INVALID_CODE:       "MEETING_INVALID_CODE",
	ErrorCode_MEETING_CLOSED:             "MEETING_CLOSED",
	ErrorCode_MEETING_INVALID_STATUS:     "MEETING_INVALID_STATUS",
	ErrorCode_ATTENDEE_NOT_FOUND:         "ATTENDEE_NOT_FOUND",
	ErrorCode_ATTENDEE_NOT_REGISTERED:    "ATTENDEE_NOT_REGISTERED",
	ErrorCode_ATTENDEE_SEAT_TAKEN:        "ATTENDEE_SEAT_TAKEN",
	ErrorCode_FLOOR_TAKEN:                "FLOOR_TAKEN",
	ErrorCode_FLOOR_NO_ACTIVE_OFFER:      "FLOOR_NO_ACTIVE_OFFER",
	ErrorCode_FLOOR_NOT_SPEAKING:         "FLOOR_NOT_SPEAKING",
	ErrorCode_VOTE_CLOSED:                "VOTE_CLOSED",
	ErrorCode_VOTE_NOT_READY:             "VOTE_NOT_READY",
	ErrorCode_VOTE_ALREADY_CAST:          "VOTE_ALREADY_CAST",
	ErrorCode_VOTE_INVALID_OPTION:        "VOTE_INVALID_OPTION",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
}

// String returns the code name
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
