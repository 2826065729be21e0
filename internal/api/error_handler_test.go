package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/api/handler"
	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/service"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		action   string
		redirect string
	}{
		{
			name:     "insufficient balance points at purchase",
			err:      &service.ActionError{Op: "create_task", Err: domain.ErrInsufficientBalance, Redirect: service.RoutePurchaseCoins, Local: true},
			code:     http.StatusPaymentRequired,
			action:   ActionNone,
			redirect: service.RoutePurchaseCoins,
		},
		{
			name:   "backend insufficient balance",
			err:    &domain.BackendError{Kind: domain.KindValidation, Status: 402, Reason: domain.ReasonInsufficientBalance},
			code:   http.StatusPaymentRequired,
			action: ActionNone,
		},
		{
			name:   "below minimum",
			err:    &service.ActionError{Op: "request_withdrawal", Err: domain.ErrBelowMinimum, Local: true},
			code:   http.StatusUnprocessableEntity,
			action: ActionCorrectInput,
		},
		{
			name:   "account exists",
			err:    &domain.BackendError{Kind: domain.KindValidation, Status: 409, Reason: domain.ReasonConflict},
			code:   http.StatusConflict,
			action: ActionCorrectInput,
		},
		{
			name:     "unauthorized",
			err:      &domain.BackendError{Kind: domain.KindUnauthorized, Status: 401},
			code:     http.StatusUnauthorized,
			action:   ActionReauthenticate,
			redirect: service.RouteLogin,
		},
		{
			name:   "generic validation",
			err:    &domain.BackendError{Kind: domain.KindValidation, Status: 400, Message: "title is required"},
			code:   http.StatusUnprocessableEntity,
			action: ActionCorrectInput,
		},
		{
			name:   "transport",
			err:    &domain.BackendError{Kind: domain.KindTransport, Err: errors.New("connection refused")},
			code:   http.StatusBadGateway,
			action: ActionRetry,
		},
		{
			name:   "server",
			err:    &domain.BackendError{Kind: domain.KindServer, Status: 503},
			code:   http.StatusBadGateway,
			action: ActionRetry,
		},
		{
			name:   "logout left credential behind",
			err:    fmt.Errorf("%w: read-only file system", domain.ErrCredentialRetained),
			code:   http.StatusServiceUnavailable,
			action: ActionRetry,
		},
		{
			name:   "not found",
			err:    &domain.BackendError{Kind: domain.KindNotFound, Status: 404},
			code:   http.StatusNotFound,
			action: ActionNone,
		},
		{
			name:   "request validation",
			err:    &handler.ValidationError{Message: "email is required"},
			code:   http.StatusUnprocessableEntity,
			action: ActionCorrectInput,
		},
		{
			name:   "echo error",
			err:    echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"),
			code:   http.StatusMethodNotAllowed,
			action: ActionNone,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			code:   http.StatusInternalServerError,
			action: ActionNone,
		},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

			h(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Action != tc.action {
				t.Fatalf("expected action %q, got %q", tc.action, body.Action)
			}
			if body.Retryable != (tc.action == ActionRetry) {
				t.Fatalf("retryable flag out of step with action %q", body.Action)
			}
			if body.Redirect != tc.redirect {
				t.Fatalf("expected redirect %q, got %q", tc.redirect, body.Redirect)
			}
			if tc.code == http.StatusInternalServerError && body.Error != "internal server error" {
				t.Fatalf("internal error leaked: %q", body.Error)
			}
		})
	}
}
