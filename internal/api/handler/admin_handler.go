package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
)

// AdminHandler serves the moderation dashboard.
type AdminHandler struct {
	base
	market Marketplace
}

func NewAdminHandler(market Marketplace, unread Unread) *AdminHandler {
	return &AdminHandler{base: base{unread: unread}, market: market}
}

type changeRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=worker buyer admin"`
}

type reportStatusRequest struct {
	Status domain.ReportStatus `json:"status" validate:"required,oneof=pending resolved dismissed"`
}

func (h *AdminHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.market.Stats(ctx)
	if err != nil {
		return err
	}
	pending, err := h.market.PendingWithdrawals(ctx)
	if err != nil {
		return err
	}
	return h.render(c, "admin-home", map[string]any{"stats": stats, "pendingWithdrawals": pending})
}

func (h *AdminHandler) Users(c echo.Context) error {
	users, err := h.market.Users(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "manage-users", users)
}

// ChangeRole is the admin override of a user's role.
//
// @Summary      Change user role
// @Tags         admin
// @Accept       json
// @Param        id    path  string             true  "User ID"
// @Param        body  body  changeRoleRequest  true  "New role"
// @Success      204
// @Failure      403   {object}  map[string]string
// @Router       /dashboard/manage-users/{id}/role [patch]
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.market.ChangeRole(c.Request().Context(), c.Param("id"), req.Role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.market.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) Tasks(c echo.Context) error {
	tasks, err := h.market.AllTasks(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "manage-tasks", tasks)
}

func (h *AdminHandler) DeleteTask(c echo.Context) error {
	if err := h.market.AdminDeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) Reports(c echo.Context) error {
	reports, err := h.market.Reports(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "manage-reports", reports)
}

func (h *AdminHandler) UpdateReport(c echo.Context) error {
	var req reportStatusRequest
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.market.UpdateReport(c.Request().Context(), c.Param("id"), req.Status); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) WithdrawalRequests(c echo.Context) error {
	pending, err := h.market.PendingWithdrawals(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "withdrawal-requests", pending)
}

func (h *AdminHandler) ApproveWithdrawal(c echo.Context) error {
	if err := h.market.ApproveWithdrawal(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
