package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/api/handler"
	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/service"
)

// SessionReader is the read side of the session store.
type SessionReader interface {
	Snapshot() (domain.SessionState, *domain.Session)
}

// Protected gates role-specific dashboard views. The request path decides
// which role rule applies.
func Protected(sessions SessionReader, router *service.RoleRouter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, sess := sessions.Snapshot()
			return apply(c, next, router.Protected(state, sess, c.Request().URL.Path), sess)
		}
	}
}

// PublicOnly gates login and register: authenticated users are sent to their
// landing route instead.
func PublicOnly(sessions SessionReader, router *service.RoleRouter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, sess := sessions.Snapshot()
			return apply(c, next, router.Public(state, sess), nil)
		}
	}
}

// RoleSelection gates the deferred role choice of a first external login.
func RoleSelection(sessions SessionReader, router *service.RoleRouter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, sess := sessions.Snapshot()
			return apply(c, next, router.RoleSelection(state, sess), sess)
		}
	}
}

func apply(c echo.Context, next echo.HandlerFunc, d service.Decision, sess *domain.Session) error {
	switch d.Kind {
	case service.Loading:
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusAccepted, map[string]string{"status": "loading"})
	case service.Redirect:
		return c.Redirect(http.StatusSeeOther, d.Target)
	case service.Forbidden:
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}
	if sess != nil {
		c.Set(handler.SessionKey, sess)
	}
	return next(c)
}
