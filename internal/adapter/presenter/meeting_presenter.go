package presenter

import (
	"encoding/json"

	"github.com/johnquangdev/assembly-floor/internal/adapter/dto/meeting"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/usecase/floor"
)

// ToMeetingResponse converts a Meeting entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.Meeting) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}
	return &meeting.MeetingResponse{
		ID:        m.ID.String(),
		Code:      m.Code,
		Status:    string(m.Status),
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToEventList converts stored events, keeping payloads as raw JSON
func ToEventList(events []*entities.MeetingEvent) []*meeting.EventResponse {
	out := make([]*meeting.EventResponse, len(events))
	for i, e := range events {
		payload := json.RawMessage(e.Payload)
		if len(payload) == 0 {
			payload = json.RawMessage("{}")
		}
		out[i] = &meeting.EventResponse{
			ID:        e.ID.String(),
			Kind:      string(e.Kind),
			Payload:   payload,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

// ToExpirationsResponse converts a floor expiration result
func ToExpirationsResponse(r *floor.Result) *meeting.ExpirationsResponse {
	if r == nil {
		return &meeting.ExpirationsResponse{Evicted: ToAttendeeList(nil)}
	}
	return &meeting.ExpirationsResponse{
		Changed:        r.Changed,
		ExpiredSpeaker: ToAttendeeResponse(r.ExpiredSpeaker),
		OfferedNext:    ToAttendeeResponse(r.OfferedNext),
		Evicted:        ToAttendeeList(r.Evicted),
	}
}
