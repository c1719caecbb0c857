package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/assembly-floor/errors"
	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	ucErrors "github.com/johnquangdev/assembly-floor/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(err, c.Param("id"))

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Stringer("app_code", appErr.Code),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Info("http.response.error", fields...)
		}
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	// raw causes of server errors stay in the logs
	if appErr.Raw != nil && appErr.HTTPCode < http.StatusInternalServerError {
		body.Info = appErr.Raw.Error()
	}
	return c.JSON(appErr.HTTPCode, body)
}

// NewHTTPErrorHandler renders errors returned by middleware and handlers
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if herr := HandleError(logger, c, err); herr != nil && logger != nil {
			logger.Error("http.response.write_failed", zap.Error(herr))
		}
	}
}

// toAppError maps use-case, domain and echo errors to AppError.
// pathID names the resource in not-found details when known.
func toAppError(err error, pathID string) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		return errors.AppError{
			HTTPCode: httpErr.Code,
			Code:     httpErrorCode(httpErr.Code),
			Message:  http.StatusText(httpErr.Code),
		}
	}

	switch {
	case stdErrors.Is(err, ucErrors.ErrMeetingNotFound):
		return withoutEmptyDetails(errors.ErrMeetingNotFound(pathID))
	case stdErrors.Is(err, ucErrors.ErrAttendeeNotFound):
		return withoutEmptyDetails(errors.ErrAttendeeNotFound(pathID))
	case stdErrors.Is(err, ucErrors.ErrInvalidCode):
		return errors.ErrInvalidMeetingCode()
	case stdErrors.Is(err, ucErrors.ErrRegistrationClosed):
		closed := errors.ErrMeetingClosed()
		closed.HTTPCode = http.StatusUnauthorized
		return closed
	case stdErrors.Is(err, ucErrors.ErrMeetingClosed):
		return errors.ErrMeetingClosed()
	case stdErrors.Is(err, ucErrors.ErrInvalidStatus):
		return withoutEmptyDetails(errors.ErrInvalidMeetingStatus(""))
	case stdErrors.Is(err, ucErrors.ErrSeatTaken):
		return errors.ErrSeatTaken()
	case stdErrors.Is(err, ucErrors.ErrFloorTaken):
		return errors.ErrFloorTaken()
	case stdErrors.Is(err, ucErrors.ErrNotSpeaking):
		return errors.ErrNotSpeaking()
	case stdErrors.Is(err, ucErrors.ErrNotRegistered):
		return errors.ErrAttendeeNotRegistered()
	case stdErrors.Is(err, ucErrors.ErrNoActiveOffer):
		return errors.ErrNoActiveOffer()
	case stdErrors.Is(err, ucErrors.ErrVotingClosed):
		return errors.ErrVotingClosed()
	case stdErrors.Is(err, entities.ErrNotReadyForFirstVote):
		return errors.ErrNotReadyForVote(string(entities.VoteRoundFirst))
	case stdErrors.Is(err, entities.ErrNotReadyForSecondVote):
		return errors.ErrNotReadyForVote(string(entities.VoteRoundSecond))
	case stdErrors.Is(err, entities.ErrAlreadyVotedFirst):
		return errors.ErrAlreadyVoted(string(entities.VoteRoundFirst))
	case stdErrors.Is(err, entities.ErrAlreadyVotedSecond):
		return errors.ErrAlreadyVoted(string(entities.VoteRoundSecond))
	case stdErrors.Is(err, entities.ErrInvalidVoteOption):
		return errors.ErrInvalidVoteOption()
	}

	switch ucErrors.Classify(err) {
	case ucErrors.KindInvalidInput:
		return errors.ErrInvalidArgument(err.Error())
	case ucErrors.KindUnauthorized:
		return errors.ErrPermissionDenied(err.Error())
	case ucErrors.KindNotFound:
		return errors.ErrNotFound("resource")
	case ucErrors.KindTransient:
		return errors.ErrServiceUnavailable(err)
	}
	return errors.ErrInternal(err)
}

func withoutEmptyDetails(e errors.AppError) errors.AppError {
	for k, v := range e.Details {
		if v == "" {
			delete(e.Details, k)
		}
	}
	if len(e.Details) == 0 {
		e.Details = nil
	}
	return e
}

func httpErrorCode(status int) errors.ErrorCode {
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return errors.ErrorCode_NOT_FOUND
	case http.StatusUnauthorized:
		return errors.ErrorCode_UNAUTHENTICATED
	case http.StatusForbidden:
		return errors.ErrorCode_PERMISSION_DENIED
	case http.StatusTooManyRequests:
		return errors.ErrorCode_RATE_LIMITED
	case http.StatusServiceUnavailable:
		return errors.ErrorCode_SERVICE_UNAVAILABLE
	}
	if status < http.StatusInternalServerError {
		return errors.ErrorCode_INVALID_ARGUMENT
	}
	return errors.ErrorCode_INTERNAL
}

// parseID reads a UUID path parameter
func parseID(c echo.Context, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument(resource + " ID must be a valid UUID")
	}
	return id, nil
}

// bindAndValidate binds the request into req and runs struct validation
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload().WithRaw(err)
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument("validation failed").WithRaw(err)
	}
	return nil
}
