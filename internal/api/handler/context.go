package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
)

// SessionKey is where the gate middleware stores the session it rendered for.
const SessionKey = "session"

// ctxSession returns the session injected by the gate middleware. Its absence
// means the route was registered without a gate.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess, _ := c.Get(SessionKey).(*domain.Session)
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return sess, nil
}
