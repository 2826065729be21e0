package middleware

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// PendingRedirect records a forced navigation raised while a request was
// being served, typically the jump to /login after the backend rejected the
// session token. It satisfies ports.Navigator.
type PendingRedirect struct {
	mu    sync.Mutex
	route string
}

func NewPendingRedirect() *PendingRedirect {
	return &PendingRedirect{}
}

func (p *PendingRedirect) Navigate(route string) {
	p.mu.Lock()
	p.route = route
	p.mu.Unlock()
}

// Take returns the pending route and forgets it.
func (p *PendingRedirect) Take() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	route := p.route
	p.route = ""
	return route, route != ""
}

// Discard forgets the pending route if it is route.
func (p *PendingRedirect) Discard(route string) {
	p.mu.Lock()
	if p.route == route {
		p.route = ""
	}
	p.mu.Unlock()
}

// ForcedReauth answers with a redirect when the handler triggered a forced
// navigation, replacing whatever error the handler returned. A navigation
// raised after the response was written stays pending for the next request.
func ForcedReauth(pending *PendingRedirect) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			pending.Discard(c.Request().URL.Path)
			err := next(c)
			if c.Response().Committed {
				return err
			}
			route, ok := pending.Take()
			if !ok {
				return err
			}
			return c.Redirect(http.StatusSeeOther, route)
		}
	}
}
