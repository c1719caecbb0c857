package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/errors"
	attendeeDTO "github.com/johnquangdev/assembly-floor/internal/adapter/dto/attendee"
	"github.com/johnquangdev/assembly-floor/internal/adapter/presenter"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/usecase/attendee"
	"github.com/johnquangdev/assembly-floor/internal/usecase/floor"
	"github.com/johnquangdev/assembly-floor/internal/usecase/voting"
)

// Attendee handles attendee, floor and voting actions
type Attendee struct {
	attendees *attendee.Service
	floor     *floor.Service
	voting    *voting.Service
	logger    *zap.Logger
}

// NewAttendeeHandler creates a new attendee handler
func NewAttendeeHandler(
	attendees *attendee.Service,
	floorService *floor.Service,
	votingService *voting.Service,
	logger *zap.Logger,
) *Attendee {
	return &Attendee{
		attendees: attendees,
		floor:     floorService,
		voting:    votingService,
		logger:    logger,
	}
}

// Register handles POST /attendees
// @Summary      Register in a meeting seat
// @Description  Takes a seat with the meeting code. Attendance still has to be marked.
// @Tags         Attendees
// @Accept       json
// @Produce      json
// @Param        request  body      attendee.RegisterRequest  true  "Registration"
// @Success      201      {object}  attendee.AttendeeResponse
// @Failure      401      {object}  map[string]interface{}  "Invalid code or closed meeting"
// @Failure      409      {object}  map[string]interface{}  "Seat already taken"
// @Failure      429      {object}  map[string]interface{}  "Too many requests"
// @Router       /attendees [post]
func (h *Attendee) Register(c echo.Context) error {
	var req attendeeDTO.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := uuid.Parse(req.MeetingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("meeting ID must be a valid UUID"))
	}

	a, err := h.attendees.Register(c.Request().Context(), attendee.RegisterInput{
		Name:        req.Name,
		SeatNumber:  req.SeatNumber,
		MeetingID:   meetingID,
		MeetingCode: req.MeetingCode,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToAttendeeResponse(a))
}

// Get handles GET /attendees/:id
// @Summary      Get attendee details
// @Tags         Attendees
// @Produce      json
// @Param        id   path  string  true  "Attendee ID (UUID)"
// @Success      200  {object}  attendee.AttendeeResponse
// @Failure      404  {object}  map[string]interface{}  "Attendee not found"
// @Router       /attendees/{id} [get]
func (h *Attendee) Get(c echo.Context) error {
	id, err := parseID(c, "id", "attendee")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	a, err := h.attendees.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToAttendeeResponse(a))
}

// MarkAttendance handles POST /attendees/:id/attendance
// @Summary      Mark the attendee present
// @Tags         Attendees
// @Produce      json
// @Param        id   path  string  true  "Attendee ID (UUID)"
// @Success      200  {object}  attendee.AttendeeResponse
// @Router       /attendees/{id}/attendance [post]
func (h *Attendee) MarkAttendance(c echo.Context) error {
	return h.act(c, h.attendees.MarkAttendance)
}

// RequestSpeak handles POST /attendees/:id/request-speak
// @Summary      Join the speaking queue
// @Tags         Floor
// @Produce      json
// @Param        id   path  string  true  "Attendee ID (UUID)"
// @Success      200  {object}  attendee.AttendeeResponse
// @Failure      422  {object}  map[string]interface{}  "Attendance not marked"
// @Router       /attendees/{id}/request-speak [post]
func (h *Attendee) RequestSpeak(c echo.Context) error {
	return h.act(c, h.floor.RequestToSpeak)
}

// AcceptIntervention handles POST /attendees/:id/accept-intervention
// @Summary      Take the offered floor
// @Tags         Floor
// @Produce      json
// @Param        id   path  string  true  "Attendee ID (UUID)"
// @Success      200  {object}  attendee.AttendeeResponse
// @Failure      409  {object}  map[string]interface{}  "Another attendee holds the floor"
// @Failure      422  {object}  map[string]interface{}  "No live offer"
// @Router       /attendees/{id}/accept-intervention [post]
func (h *Attendee) AcceptIntervention(c echo.Context) error {
	return h.act(c, h.floor.AcceptIntervention)
}

// CancelIntervention handles POST /attendees/:id/cancel-intervention
// @Summary      Leave the queue or the floor
// @Tags         Floor
// @Produce      json
// @Param        id   path  string  true  "Attendee ID (UUID)"
// @Success      200  {object}  attendee.ReleaseResponse
// @Router       /attendees/{id}/cancel-intervention [post]
func (h *Attendee) CancelIntervention(c echo.Context) error {
	return h.release(c, h.floor.CancelIntervention)
}

// EndIntervention handles POST /attendees/:id/end-intervention
// @Summary      Yield the floor
// @Tags         Floor
// @Produce      json
// @Param        id   path  string  true  "Attendee ID (UUID)"
// @Success      200  {object}  attendee.ReleaseResponse
// @Failure      422  {object}  map[string]interface{}  "Attendee is not speaking"
// @Router       /attendees/{id}/end-intervention [post]
func (h *Attendee) EndIntervention(c echo.Context) error {
	return h.release(c, h.floor.EndIntervention)
}

// ConfirmFirstVote handles POST /attendees/:id/confirm-first-vote
// @Summary      Confirm readiness for the first vote
// @Tags         Voting
// @Produce      json
// @Param        id   path  string  true  "Attendee ID (UUID)"
// @Success      200  {object}  attendee.AttendeeResponse
// @Router       /attendees/{id}/confirm-first-vote [post]
func (h *Attendee) ConfirmFirstVote(c echo.Context) error {
	return h.confirm(c, entities.VoteRoundFirst)
}

// ConfirmSecondVote handles POST /attendees/:id/confirm-second-vote
// @Summary      Confirm readiness for the second vote
// @Tags         Voting
// @Produce      json
// @Param        id   path  string  true  "Attendee ID (UUID)"
// @Success      200  {object}  attendee.AttendeeResponse
// @Router       /attendees/{id}/confirm-second-vote [post]
func (h *Attendee) ConfirmSecondVote(c echo.Context) error {
	return h.confirm(c, entities.VoteRoundSecond)
}

// Vote handles POST /attendees/:id/vote
// @Summary      Cast a ballot in the open round
// @Tags         Voting
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "Attendee ID (UUID)"
// @Param        request  body  attendee.VoteRequest  true  "Ballot"
// @Success      200  {object}  attendee.AttendeeResponse
// @Failure      400  {object}  map[string]interface{}  "Unknown option"
// @Failure      409  {object}  map[string]interface{}  "Already voted"
// @Failure      422  {object}  map[string]interface{}  "Voting closed or readiness not confirmed"
// @Router       /attendees/{id}/vote [post]
func (h *Attendee) Vote(c echo.Context) error {
	id, err := parseID(c, "id", "attendee")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req attendeeDTO.VoteRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithRaw(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidVoteOption())
	}

	a, err := h.voting.CastVote(c.Request().Context(), id, entities.VoteOption(req.Option))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToAttendeeResponse(a))
}

func (h *Attendee) confirm(c echo.Context, round entities.VoteRound) error {
	id, err := parseID(c, "id", "attendee")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	a, err := h.voting.ConfirmReady(c.Request().Context(), id, round)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToAttendeeResponse(a))
}

type attendeeAction func(ctx context.Context, id uuid.UUID) (*entities.Attendee, error)

type releaseAction func(ctx context.Context, id uuid.UUID) (*entities.Attendee, *entities.Attendee, error)

func (h *Attendee) act(c echo.Context, fn attendeeAction) error {
	id, err := parseID(c, "id", "attendee")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	a, err := fn(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToAttendeeResponse(a))
}

func (h *Attendee) release(c echo.Context, fn releaseAction) error {
	id, err := parseID(c, "id", "attendee")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	released, next, err := fn(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToReleaseResponse(released, next))
}
