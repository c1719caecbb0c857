package attendee

// RegisterRequest represents the request to take a seat in a meeting
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	SeatNumber  int    `json:"seat_number" validate:"required,min=1"`
	MeetingID   string `json:"meeting_id" validate:"required,uuid"`
	MeetingCode string `json:"meeting_code" validate:"required"`
}

// VoteRequest carries a ballot for the open round
type VoteRequest struct {
	Option string `json:"option" validate:"required,vote_option"`
}
