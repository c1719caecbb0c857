package meeting

// UpdateStatusRequest moves a meeting to another lifecycle status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,meeting_status"`
}

// ListEventsRequest represents query parameters for the audit trail
type ListEventsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

// SummaryRequest represents query parameters for the summary
type SummaryRequest struct {
	IncludeAttendees bool `query:"include_attendees"`
}
