package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/api/handler"
	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/service"
)

// Action tells the console what the user can do about an error.
const (
	ActionRetry          = "retry"
	ActionCorrectInput   = "correct_input"
	ActionReauthenticate = "reauthenticate"
	ActionNone           = "none"
)

// errorResponse is the canonical error envelope for all console errors.
type errorResponse struct {
	Error     string `json:"error"`
	Action    string `json:"action"`
	Retryable bool   `json:"retryable"`
	Redirect  string `json:"redirect,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps the backend
// error taxonomy and domain errors onto status codes, logs unexpected errors
// without leaking them, and renders {"error", "action", "redirect"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		body.Retryable = body.Action == ActionRetry
		if body.Redirect != "" {
			c.Response().Header().Set(echo.HeaderLocation, body.Redirect)
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Action: ActionNone}
	}

	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{Error: ve.Message, Action: ActionCorrectInput}
	}

	var redirect string
	var ae *service.ActionError
	if errors.As(err, &ae) {
		redirect = ae.Redirect
	}

	switch {
	case domain.IsInsufficientBalance(err):
		return http.StatusPaymentRequired, errorResponse{Error: "insufficient coin balance", Action: ActionNone, Redirect: redirect}
	case errors.Is(err, domain.ErrBelowMinimum),
		errors.Is(err, domain.ErrDeadlinePassed),
		errors.Is(err, domain.ErrUnknownPackage),
		errors.Is(err, domain.ErrRoleNotSelectable):
		return http.StatusUnprocessableEntity, errorResponse{Error: message(err), Action: ActionCorrectInput}
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, errorResponse{Error: "account already exists", Action: ActionCorrectInput}
	case errors.Is(err, domain.ErrRoleAlreadySelected):
		return http.StatusConflict, errorResponse{Error: "role already selected", Action: ActionNone}
	case errors.Is(err, domain.ErrStaleRefresh):
		return http.StatusConflict, errorResponse{Error: "session changed, reload the view", Action: ActionRetry}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Action: ActionCorrectInput}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "sign in again", Action: ActionReauthenticate, Redirect: service.RouteLogin}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden", Action: ActionNone}
	case errors.Is(err, domain.ErrCredentialRetained):
		return http.StatusServiceUnavailable, errorResponse{Error: "signed out, but the saved session could not be removed", Action: ActionRetry}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not found", Action: ActionNone}
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity, errorResponse{Error: message(err), Action: ActionCorrectInput}
	case domain.KindTransport, domain.KindServer:
		log.Warn().Err(err).Str("path", c.Path()).Msg("backend unavailable")
		return http.StatusBadGateway, errorResponse{Error: "marketplace temporarily unavailable", Action: ActionRetry}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Action: ActionNone}
}

// message prefers the backend's own wording for a rejected request.
func message(err error) string {
	var be *domain.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	var ae *service.ActionError
	if errors.As(err, &ae) {
		return ae.Err.Error()
	}
	return err.Error()
}
