package middleware

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/assembly-floor/errors"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	ucErrors "github.com/johnquangdev/assembly-floor/internal/usecase/errors"
)

// Headers carrying attendee credentials. Websocket clients, which cannot
// set headers, pass the same values as the meeting_id and code query params.
const (
	HeaderMeetingID   = "X-Meeting-Id"
	HeaderMeetingCode = "X-Meeting-Code"
)

// MeetingIDContextKey holds the meeting the caller proved access to
const MeetingIDContextKey = "meeting_id"

// MeetingGetter loads a meeting
type MeetingGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
}

// AttendeeGetter loads an attendee
type AttendeeGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*entities.Attendee, error)
}

// CodeCache remembers verified meeting codes
type CodeCache interface {
	Set(key string, value string, expiration time.Duration)
	Get(key string) (string, bool)
}

// MeetingAccess lets admins through and checks the meeting id and code
// headers of everyone else
type MeetingAccess struct {
	meetings  MeetingGetter
	attendees AttendeeGetter
	cache     CodeCache
	ttl       time.Duration
}

// NewMeetingAccess creates the access checker. cache may be nil.
func NewMeetingAccess(meetings MeetingGetter, attendees AttendeeGetter, cache CodeCache, ttl time.Duration) *MeetingAccess {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MeetingAccess{meetings: meetings, attendees: attendees, cache: cache, ttl: ttl}
}

// RequireMeeting guards routes whose :id is a meeting id
func (a *MeetingAccess) RequireMeeting(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IsAdmin(c) {
			return next(c)
		}
		meetingID, err := a.verify(c)
		if err != nil {
			return err
		}
		if c.Param("id") != meetingID.String() {
			return errors.ErrPermissionDenied("credentials belong to another meeting")
		}
		c.Set(MeetingIDContextKey, meetingID)
		return next(c)
	}
}

// RequireAttendee guards routes whose :id is an attendee of the credential's meeting
func (a *MeetingAccess) RequireAttendee(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IsAdmin(c) {
			return next(c)
		}
		meetingID, err := a.verify(c)
		if err != nil {
			return err
		}

		attendeeID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return errors.ErrInvalidArgument("attendee ID must be a valid UUID")
		}
		attendee, err := a.attendees.Get(c.Request().Context(), attendeeID)
		if err != nil {
			if stdErrors.Is(err, ucErrors.ErrAttendeeNotFound) {
				return errors.ErrAttendeeNotFound(attendeeID.String())
			}
			return errors.ErrInternal(err)
		}
		if attendee.MeetingID != meetingID {
			return errors.ErrPermissionDenied("attendee belongs to another meeting")
		}
		c.Set(MeetingIDContextKey, meetingID)
		return next(c)
	}
}

func (a *MeetingAccess) verify(c echo.Context) (uuid.UUID, error) {
	rawID := c.Request().Header.Get(HeaderMeetingID)
	if rawID == "" {
		rawID = c.QueryParam("meeting_id")
	}
	code := c.Request().Header.Get(HeaderMeetingCode)
	if code == "" {
		code = c.QueryParam("code")
	}
	if rawID == "" || code == "" {
		return uuid.Nil, errors.ErrUnauthenticated()
	}
	meetingID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, errors.ErrInvalidMeetingCode()
	}

	key := "meeting:code:" + meetingID.String()
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok && cached == code {
			return meetingID, nil
		}
	}

	meeting, err := a.meetings.Get(c.Request().Context(), meetingID)
	if err != nil {
		if stdErrors.Is(err, ucErrors.ErrMeetingNotFound) {
			return uuid.Nil, errors.ErrInvalidMeetingCode()
		}
		return uuid.Nil, errors.ErrInternal(err)
	}
	if !meeting.MatchesCode(code) {
		return uuid.Nil, errors.ErrInvalidMeetingCode()
	}
	if meeting.IsClosed() {
		return uuid.Nil, errors.ErrMeetingClosed()
	}

	if a.cache != nil {
		a.cache.Set(key, meeting.Code, a.ttl)
	}
	return meetingID, nil
}
