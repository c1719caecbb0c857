package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/internal/adapter/dto/common"
	"github.com/johnquangdev/assembly-floor/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/assembly-floor/pkg/config"
	pkgMiddleware "github.com/johnquangdev/assembly-floor/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	meetingHandler  *Meeting
	attendeeHandler *Attendee
	auth            *middleware.AuthMiddleware
	access          *middleware.MeetingAccess
	registerLimiter *pkgMiddleware.IPRateLimiter
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	meetingHandler *Meeting,
	attendeeHandler *Attendee,
	auth *middleware.AuthMiddleware,
	access *middleware.MeetingAccess,
	registerLimiter *pkgMiddleware.IPRateLimiter,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		meetingHandler:  meetingHandler,
		attendeeHandler: attendeeHandler,
		auth:            auth,
		access:          access,
		registerLimiter: registerLimiter,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(rt.logger)

	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1", rt.auth.OptionalAuth)

	rt.setupMeetingRoutes(v1)
	rt.setupAttendeeRoutes(v1)
}

// setupMeetingRoutes configures meeting and floor queue routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	h := rt.meetingHandler
	admin := rt.auth.RequireAdmin
	member := rt.access.RequireMeeting

	meetings := g.Group("/meetings")
	meetings.POST("", h.Create, admin)
	meetings.GET("/last", h.GetLast, admin)
	meetings.GET("/:id", h.Get, member)
	meetings.GET("/:id/summary", h.Summary, member)
	meetings.PUT("/:id/status", h.UpdateStatus, admin)
	meetings.GET("/:id/events", h.ListEvents, admin)
	meetings.GET("/:id/snapshot", h.Snapshot, admin)
	meetings.GET("/:id/ws", h.Live, member)

	meetings.GET("/:id/current-speaker", h.CurrentSpeaker, member)
	meetings.GET("/:id/pending-interventions", h.PendingInterventions, member)
	meetings.POST("/:id/next-intervention", h.NextIntervention, admin)
	meetings.POST("/:id/process-expirations", h.ProcessExpirations, admin)
}

// setupAttendeeRoutes configures attendee, floor and voting routes
func (rt *Router) setupAttendeeRoutes(g *echo.Group) {
	h := rt.attendeeHandler
	self := rt.access.RequireAttendee

	attendees := g.Group("/attendees")
	if rt.registerLimiter != nil {
		attendees.POST("", h.Register, rt.registerLimiter.Middleware())
	} else {
		attendees.POST("", h.Register)
	}
	attendees.GET("/:id", h.Get, self)
	attendees.POST("/:id/attendance", h.MarkAttendance, self)
	attendees.POST("/:id/request-speak", h.RequestSpeak, self)
	attendees.POST("/:id/accept-intervention", h.AcceptIntervention, self)
	attendees.POST("/:id/cancel-intervention", h.CancelIntervention, self)
	attendees.POST("/:id/end-intervention", h.EndIntervention, self)
	attendees.POST("/:id/confirm-first-vote", h.ConfirmFirstVote, self)
	attendees.POST("/:id/confirm-second-vote", h.ConfirmSecondVote, self)
	attendees.POST("/:id/vote", h.Vote, self)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	storage := "disabled"
	if rt.meetingHandler != nil && rt.meetingHandler.snapshots != nil {
		storage = "enabled"
	}
	return HandleSuccess(nil, c, common.HealthResponse{
		Status:      "ok",
		Environment: rt.cfg.Server.Environment,
		Storage:     storage,
	})
}
