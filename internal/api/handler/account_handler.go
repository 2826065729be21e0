package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
)

// AccountHandler serves the views every role shares.
type AccountHandler struct {
	base
	market Marketplace
}

func NewAccountHandler(market Marketplace, unread Unread) *AccountHandler {
	return &AccountHandler{base: base{unread: unread}, market: market}
}

func (h *AccountHandler) Profile(c echo.Context) error {
	return h.render(c, "profile", nil)
}

// UpdateProfile saves name and photo and returns the refreshed session.
//
// @Summary      Update profile
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      domain.ProfileUpdate  true  "Profile"
// @Success      200   {object}  actionResponse
// @Router       /dashboard/profile [patch]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var in domain.ProfileUpdate
	if err := c.Bind(&in); err != nil {
		return badPayload(c)
	}
	sess, err := h.market.UpdateProfile(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, actionResponse{Session: toSessionView(sess, h.unread), Confirmed: true})
}

func (h *AccountHandler) Notifications(c echo.Context) error {
	items, err := h.market.Notifications(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "notifications", items)
}

func (h *AccountHandler) MarkRead(c echo.Context) error {
	if err := h.market.MarkRead(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) MarkAllRead(c echo.Context) error {
	if err := h.market.MarkAllRead(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// TopWorkers is the public leaderboard shown on the landing page.
func (h *AccountHandler) TopWorkers(c echo.Context) error {
	workers, err := h.market.TopWorkers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewResponse{View: "top-workers", Data: workers})
}
