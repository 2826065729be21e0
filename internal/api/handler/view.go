package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/service"
)

// sessionView is the header every dashboard view carries.
type sessionView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	PhotoURL    string      `json:"photoUrl,omitempty"`
	Role        domain.Role `json:"role"`
	Coins       int         `json:"coins"`
	Optimistic  bool        `json:"optimistic,omitempty"`
	UnreadBadge string      `json:"unreadBadge,omitempty"`
}

type viewResponse struct {
	View    string       `json:"view"`
	Session *sessionView `json:"session,omitempty"`
	Data    any          `json:"data,omitempty"`
}

// actionResponse reports a completed mutation. Confirmed is false when the
// balance shown could not be re-read from the backend afterwards.
type actionResponse struct {
	Result    any          `json:"result,omitempty"`
	Session   *sessionView `json:"session,omitempty"`
	Confirmed bool         `json:"confirmed"`
}

func toSessionView(s *domain.Session, unread Unread) *sessionView {
	if s == nil {
		return nil
	}
	v := &sessionView{
		ID:         s.ID,
		Name:       s.DisplayName,
		Email:      s.Email,
		PhotoURL:   s.AvatarRef,
		Role:       s.Role,
		Coins:      s.CoinBalance,
		Optimistic: s.Optimistic,
	}
	if unread != nil {
		n, _ := unread.Unread()
		v.UnreadBadge = service.UnreadBadge(n)
	}
	return v
}

// base carries what every dashboard handler needs to render.
type base struct {
	unread Unread
}

func (b base) render(c echo.Context, view string, data any) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewResponse{View: view, Session: toSessionView(sess, b.unread), Data: data})
}

func (b base) done(c echo.Context, status int, result any, rec *service.Reconciled) error {
	resp := actionResponse{Result: result}
	if rec != nil {
		resp.Session = toSessionView(rec.Session, b.unread)
		resp.Confirmed = rec.Confirmed
	}
	return c.JSON(status, resp)
}

func badPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
}

func queryInt(c echo.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return v
	}
	return def
}
