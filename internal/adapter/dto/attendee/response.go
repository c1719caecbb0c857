package attendee

import "time"

// AttendeeResponse represents an attendee in responses
type AttendeeResponse struct {
	ID                         string     `json:"id"`
	MeetingID                  string     `json:"meeting_id"`
	Name                       string     `json:"name"`
	SeatNumber                 int        `json:"seat_number"`
	IsRegistered               bool       `json:"is_registered"`
	RequestedToSpeak           bool       `json:"requested_to_speak"`
	RequestedAt                *time.Time `json:"requested_at,omitempty"`
	FloorState                 string     `json:"floor_state"`
	IsSpeaking                 bool       `json:"is_speaking"`
	InterventionAccepted       bool       `json:"intervention_accepted"`
	InterventionAcceptDeadline *time.Time `json:"intervention_accept_deadline,omitempty"`
	InterventionStartTime      *time.Time `json:"intervention_start_time,omitempty"`
	ReadyForFirstVote          bool       `json:"ready_for_first_vote"`
	ReadyForSecondVote         bool       `json:"ready_for_second_vote"`
	Vote                       *string    `json:"vote,omitempty"`
	SecondVote                 *string    `json:"second_vote,omitempty"`
	CreatedAt                  time.Time  `json:"created_at"`
}

// ReleaseResponse is returned when an attendee leaves the floor or the queue
type ReleaseResponse struct {
	Attendee *AttendeeResponse `json:"attendee"`
	Next     *AttendeeResponse `json:"next,omitempty"`
}
