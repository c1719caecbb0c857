package presenter

import (
	"github.com/johnquangdev/assembly-floor/internal/adapter/dto/attendee"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
)

// ToAttendeeResponse converts an Attendee entity to AttendeeResponse DTO
func ToAttendeeResponse(a *entities.Attendee) *attendee.AttendeeResponse {
	if a == nil {
		return nil
	}
	return &attendee.AttendeeResponse{
		ID:                         a.ID.String(),
		MeetingID:                  a.MeetingID.String(),
		Name:                       a.Name,
		SeatNumber:                 a.SeatNumber,
		IsRegistered:               a.IsRegistered,
		RequestedToSpeak:           a.RequestedToSpeak,
		RequestedAt:                a.RequestedAt,
		FloorState:                 string(a.FloorState),
		IsSpeaking:                 a.IsSpeaking(),
		InterventionAccepted:       a.InterventionAccepted(),
		InterventionAcceptDeadline: a.InterventionAcceptDeadline,
		InterventionStartTime:      a.InterventionStartTime,
		ReadyForFirstVote:          a.ReadyForFirstVote,
		ReadyForSecondVote:         a.ReadyForSecondVote,
		Vote:                       optionString(a.Vote),
		SecondVote:                 optionString(a.SecondVote),
		CreatedAt:                  a.CreatedAt,
	}
}

// ToAttendeeList converts a slice of Attendee entities
func ToAttendeeList(attendees []*entities.Attendee) []*attendee.AttendeeResponse {
	out := make([]*attendee.AttendeeResponse, len(attendees))
	for i, a := range attendees {
		out[i] = ToAttendeeResponse(a)
	}
	return out
}

// ToReleaseResponse pairs the released attendee with the one offered the floor next
func ToReleaseResponse(released, next *entities.Attendee) *attendee.ReleaseResponse {
	return &attendee.ReleaseResponse{
		Attendee: ToAttendeeResponse(released),
		Next:     ToAttendeeResponse(next),
	}
}

func optionString(v *entities.VoteOption) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
