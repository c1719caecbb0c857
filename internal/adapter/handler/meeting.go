package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/errors"
	"github.com/johnquangdev/assembly-floor/internal/adapter/dto/common"
	meetingDTO "github.com/johnquangdev/assembly-floor/internal/adapter/dto/meeting"
	"github.com/johnquangdev/assembly-floor/internal/adapter/presenter"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/usecase/floor"
	"github.com/johnquangdev/assembly-floor/internal/usecase/meeting"
)

// LiveJoiner attaches a websocket client to a meeting's notification stream
type LiveJoiner interface {
	Serve(w http.ResponseWriter, r *http.Request, meetingID uuid.UUID) error
}

// SnapshotLinker returns a temporary download link for a closing snapshot
type SnapshotLinker interface {
	SnapshotURL(ctx context.Context, meetingID uuid.UUID, expiry time.Duration) (string, error)
}

const snapshotLinkExpiry = 15 * time.Minute

// Meeting handles meeting and floor queries
type Meeting struct {
	meetings  *meeting.Service
	floor     *floor.Service
	live      LiveJoiner
	snapshots SnapshotLinker
	logger    *zap.Logger
}

// NewMeetingHandler creates a new meeting handler. live and snapshots may be nil.
func NewMeetingHandler(
	meetings *meeting.Service,
	floorService *floor.Service,
	live LiveJoiner,
	snapshots SnapshotLinker,
	logger *zap.Logger,
) *Meeting {
	return &Meeting{
		meetings:  meetings,
		floor:     floorService,
		live:      live,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Create handles POST /meetings
// @Summary      Create a meeting
// @Description  Opens a new assembly with a fresh join code
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  meeting.MeetingResponse
// @Failure      401  {object}  map[string]interface{}  "Administrator token required"
// @Router       /meetings [post]
func (h *Meeting) Create(c echo.Context) error {
	m, err := h.meetings.Create(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToMeetingResponse(m))
}

// GetLast handles GET /meetings/last
// @Summary      Get the latest meeting
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meeting.MeetingResponse
// @Failure      404  {object}  map[string]interface{}  "No meeting yet"
// @Router       /meetings/last [get]
func (h *Meeting) GetLast(c echo.Context) error {
	m, err := h.meetings.GetLast(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// Get handles GET /meetings/:id
// @Summary      Get meeting details
// @Tags         Meetings
// @Produce      json
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meeting.MeetingResponse
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id} [get]
func (h *Meeting) Get(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	m, err := h.meetings.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// Summary handles GET /meetings/:id/summary
// @Summary      Get the meeting summary
// @Description  Counts, tallies and current speaker, optionally with every attendee
// @Tags         Meetings
// @Produce      json
// @Param        id                 path   string  true   "Meeting ID (UUID)"
// @Param        include_attendees  query  bool    false  "Include the attendee list"
// @Success      200  {object}  summary.MeetingSummary
// @Router       /meetings/{id}/summary [get]
func (h *Meeting) Summary(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.SummaryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	s, err := h.meetings.Summary(c.Request().Context(), id, req.IncludeAttendees)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, s)
}

// UpdateStatus handles PUT /meetings/:id/status
// @Summary      Move the meeting to another status
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                          true  "Meeting ID (UUID)"
// @Param        request  body  meeting.UpdateStatusRequest  true  "Target status"
// @Success      200  {object}  meeting.MeetingResponse
// @Failure      400  {object}  map[string]interface{}  "Unknown status"
// @Failure      422  {object}  map[string]interface{}  "Meeting is closed"
// @Router       /meetings/{id}/status [put]
func (h *Meeting) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithRaw(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidMeetingStatus(req.Status))
	}

	m, err := h.meetings.UpdateStatus(c.Request().Context(), id, entities.MeetingStatus(req.Status))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// ListEvents handles GET /meetings/:id/events
// @Summary      List the notification audit trail
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id     path   string  true   "Meeting ID (UUID)"
// @Param        limit  query  int     false  "Maximum events, newest first"
// @Success      200  {object}  common.ListResponse
// @Router       /meetings/{id}/events [get]
func (h *Meeting) ListEvents(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.ListEventsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	events, err := h.meetings.ListEvents(c.Request().Context(), id, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.ListResponse{
		Items: presenter.ToEventList(events),
		Total: len(events),
	})
}

// Snapshot handles GET /meetings/:id/snapshot
// @Summary      Get a download link for the closing snapshot
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Meeting ID (UUID)"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}  "Archive storage disabled"
// @Router       /meetings/{id}/snapshot [get]
func (h *Meeting) Snapshot(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if h.snapshots == nil {
		return HandleError(h.logger, c, errors.ErrServiceUnavailable(nil).WithDetail("storage", "disabled"))
	}
	m, err := h.meetings.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if !m.IsClosed() {
		return HandleError(h.logger, c, errors.ErrNotFound("closing snapshot"))
	}
	url, err := h.snapshots.SnapshotURL(c.Request().Context(), id, snapshotLinkExpiry)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("presign", err))
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"url":        url,
		"expires_in": int(snapshotLinkExpiry.Seconds()),
	})
}

// Live handles GET /meetings/:id/ws
// @Summary      Subscribe to meeting notifications over a websocket
// @Tags         Meetings
// @Param        id         path   string  true   "Meeting ID (UUID)"
// @Param        meeting_id query  string  false  "Meeting ID when headers cannot be set"
// @Param        code       query  string  false  "Meeting code when headers cannot be set"
// @Success      101
// @Router       /meetings/{id}/ws [get]
func (h *Meeting) Live(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if h.live == nil {
		return HandleError(h.logger, c, errors.ErrServiceUnavailable(nil))
	}
	if _, err := h.meetings.Get(c.Request().Context(), id); err != nil {
		return HandleError(h.logger, c, err)
	}
	// the upgrader writes its own error response
	if err := h.live.Serve(c.Response(), c.Request(), id); err != nil {
		h.logger.Warn("realtime.upgrade.failed",
			zap.String("meeting_id", id.String()),
			zap.Error(err),
		)
	}
	return nil
}

// CurrentSpeaker handles GET /meetings/:id/current-speaker
// @Summary      Get the attendee holding the floor
// @Tags         Floor
// @Produce      json
// @Param        id   path  string  true  "Meeting ID (UUID)"
// @Success      200  {object}  attendee.AttendeeResponse  "Empty data when nobody speaks"
// @Router       /meetings/{id}/current-speaker [get]
func (h *Meeting) CurrentSpeaker(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	speaker, err := h.floor.CurrentSpeaker(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if speaker == nil {
		return HandleSuccess(h.logger, c, nil)
	}
	return HandleSuccess(h.logger, c, presenter.ToAttendeeResponse(speaker))
}

// PendingInterventions handles GET /meetings/:id/pending-interventions
// @Summary      List the speaking queue in serving order
// @Tags         Floor
// @Produce      json
// @Param        id   path  string  true  "Meeting ID (UUID)"
// @Success      200  {object}  common.ListResponse
// @Router       /meetings/{id}/pending-interventions [get]
func (h *Meeting) PendingInterventions(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	pending, err := h.floor.PendingInterventions(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.ListResponse{
		Items: presenter.ToAttendeeList(pending),
		Total: len(pending),
	})
}

// NextIntervention handles POST /meetings/:id/next-intervention
// @Summary      Offer the floor to the head of the queue
// @Tags         Floor
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Meeting ID (UUID)"
// @Success      200  {object}  attendee.AttendeeResponse  "Empty data when the queue is empty"
// @Router       /meetings/{id}/next-intervention [post]
func (h *Meeting) NextIntervention(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	next, err := h.floor.MoveToNextIntervention(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if next == nil {
		return HandleSuccess(h.logger, c, nil)
	}
	return HandleSuccess(h.logger, c, presenter.ToAttendeeResponse(next))
}

// ProcessExpirations handles POST /meetings/:id/process-expirations
// @Summary      Run one expiration pass now
// @Tags         Floor
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meeting.ExpirationsResponse
// @Router       /meetings/{id}/process-expirations [post]
func (h *Meeting) ProcessExpirations(c echo.Context) error {
	id, err := parseID(c, "id", "meeting")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	result, err := h.floor.Sweep(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToExpirationsResponse(result))
}
