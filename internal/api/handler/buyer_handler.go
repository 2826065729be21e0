package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
)

// BuyerHandler serves the buyer dashboard.
type BuyerHandler struct {
	base
	market Marketplace
	wallet Wallet
}

func NewBuyerHandler(market Marketplace, wallet Wallet, unread Unread) *BuyerHandler {
	return &BuyerHandler{base: base{unread: unread}, market: market, wallet: wallet}
}

type packageView struct {
	domain.CoinPackage
	PerCoin string `json:"perCoin"`
}

func (h *BuyerHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.market.Stats(ctx)
	if err != nil {
		return err
	}
	pending, err := h.market.SubmissionsToReview(ctx)
	if err != nil {
		return err
	}
	return h.render(c, "buyer-home", map[string]any{"stats": stats, "toReview": pending})
}

// AddTaskForm shows the balance the draft cost is checked against.
func (h *BuyerHandler) AddTaskForm(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return h.render(c, "add-task", map[string]any{
		"balance": sess.CoinBalance,
		"cost":    "requiredWorkers * payableAmount",
	})
}

// CreateTask posts a task and charges the buyer. A draft the cached balance
// cannot cover is refused locally and points at the purchase view.
//
// @Summary      Create task
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Param        body  body      domain.TaskDraft  true  "Task"
// @Success      201   {object}  actionResponse
// @Failure      402   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Router       /dashboard/add-task [post]
func (h *BuyerHandler) CreateTask(c echo.Context) error {
	var draft domain.TaskDraft
	if err := c.Bind(&draft); err != nil {
		return badPayload(c)
	}
	task, rec, err := h.wallet.CreateTask(c.Request().Context(), draft)
	if err != nil {
		return err
	}
	return h.done(c, http.StatusCreated, task, rec)
}

func (h *BuyerHandler) MyTasks(c echo.Context) error {
	tasks, err := h.market.MyTasks(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "my-tasks", tasks)
}

func (h *BuyerHandler) UpdateTask(c echo.Context) error {
	var in domain.TaskUpdate
	if err := c.Bind(&in); err != nil {
		return badPayload(c)
	}
	if err := h.market.UpdateTask(c.Request().Context(), c.Param("id"), in); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteTask removes a task; the backend refunds what was not paid out.
func (h *BuyerHandler) DeleteTask(c echo.Context) error {
	rec, err := h.wallet.DeleteTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return h.done(c, http.StatusOK, nil, rec)
}

func (h *BuyerHandler) Review(c echo.Context) error {
	subs, err := h.market.SubmissionsToReview(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "review", subs)
}

// Approve pays the worker for a submission.
//
// @Summary      Approve submission
// @Tags         buyer
// @Produce      json
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  actionResponse
// @Router       /dashboard/review/{id}/approve [post]
func (h *BuyerHandler) Approve(c echo.Context) error {
	rec, err := h.wallet.ApproveSubmission(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return h.done(c, http.StatusOK, nil, rec)
}

func (h *BuyerHandler) Reject(c echo.Context) error {
	rec, err := h.wallet.RejectSubmission(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return h.done(c, http.StatusOK, nil, rec)
}

// PurchaseForm lists the coin packages on sale.
func (h *BuyerHandler) PurchaseForm(c echo.Context) error {
	pkgs, err := h.market.CoinPackages(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]packageView, 0, len(pkgs))
	for _, p := range pkgs {
		v := packageView{CoinPackage: p}
		if p.Coins > 0 {
			v.PerCoin = perCoin(p)
		}
		out = append(out, v)
	}
	return h.render(c, "purchase-coins", out)
}

// Purchase buys a coin package.
//
// @Summary      Purchase coins
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Param        body  body      domain.PurchaseRequest  true  "Package and card"
// @Success      201   {object}  actionResponse
// @Router       /dashboard/purchase-coins [post]
func (h *BuyerHandler) Purchase(c echo.Context) error {
	var req domain.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	payment, rec, err := h.wallet.PurchaseCoins(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return h.done(c, http.StatusCreated, payment, rec)
}

func (h *BuyerHandler) PaymentHistory(c echo.Context) error {
	payments, err := h.market.PaymentHistory(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "payment-history", payments)
}
