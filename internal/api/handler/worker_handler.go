package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
)

// WorkerHandler serves the worker dashboard.
type WorkerHandler struct {
	base
	market Marketplace
	wallet Wallet
}

func NewWorkerHandler(market Marketplace, wallet Wallet, unread Unread) *WorkerHandler {
	return &WorkerHandler{base: base{unread: unread}, market: market, wallet: wallet}
}

type submitRequest struct {
	Details string `json:"submissionDetails" validate:"required"`
}

type withdrawalsView struct {
	Balance        int                 `json:"balance"`
	BalanceUSD     string              `json:"balanceUsd"`
	MinCoins       int                 `json:"minCoins"`
	CoinsPerDollar int                 `json:"coinsPerDollar"`
	CanWithdraw    bool                `json:"canWithdraw"`
	PaymentSystems []string            `json:"paymentSystems"`
	History        []domain.Withdrawal `json:"history"`
}

// Home shows the worker's stats and approved submissions.
//
// @Summary      Worker home
// @Tags         worker
// @Produce      json
// @Success      200  {object}  viewResponse
// @Router       /dashboard/worker-home [get]
func (h *WorkerHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.market.Stats(ctx)
	if err != nil {
		return err
	}
	approved, err := h.market.ApprovedSubmissions(ctx)
	if err != nil {
		return err
	}
	return h.render(c, "worker-home", map[string]any{"stats": stats, "approved": approved})
}

func (h *WorkerHandler) TaskList(c echo.Context) error {
	tasks, err := h.market.AvailableTasks(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "task-list", tasks)
}

// TaskDetail shows one task. A missing task renders an empty state.
func (h *WorkerHandler) TaskDetail(c echo.Context) error {
	task, err := h.market.Task(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return h.render(c, "task-detail", task)
}

// Submit records a worker's claim of completion.
//
// @Summary      Submit task work
// @Tags         worker
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Task ID"
// @Param        body  body      submitRequest  true  "Proof of work"
// @Success      201   {object}  domain.Submission
// @Router       /dashboard/task/{id}/submit [post]
func (h *WorkerHandler) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	sub, err := h.market.Submit(c.Request().Context(), c.Param("id"), req.Details)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *WorkerHandler) MySubmissions(c echo.Context) error {
	page, err := h.market.MySubmissions(c.Request().Context(), queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		return err
	}
	return h.render(c, "my-submissions", page)
}

// Withdrawals shows the balance in coins and dollars and the payout history.
//
// @Summary      Withdrawals view
// @Tags         worker
// @Produce      json
// @Success      200  {object}  viewResponse
// @Router       /dashboard/withdrawals [get]
func (h *WorkerHandler) Withdrawals(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	history, err := h.market.MyWithdrawals(c.Request().Context())
	if err != nil {
		return err
	}
	eco := h.wallet.Economy()
	return h.render(c, "withdrawals", withdrawalsView{
		Balance:        sess.CoinBalance,
		BalanceUSD:     h.wallet.Quote(sess.CoinBalance),
		MinCoins:       eco.MinWithdrawalCoins,
		CoinsPerDollar: eco.CoinsPerDollar,
		CanWithdraw:    eco.CanWithdraw(sess.CoinBalance),
		PaymentSystems: domain.PaymentSystems,
		History:        history,
	})
}

// RequestWithdrawal asks for a payout. Requests under the minimum are
// refused without contacting the backend.
//
// @Summary      Request withdrawal
// @Tags         worker
// @Accept       json
// @Produce      json
// @Param        body  body      domain.WithdrawalRequest  true  "Withdrawal"
// @Success      201   {object}  actionResponse
// @Failure      422   {object}  map[string]any
// @Router       /dashboard/withdrawals [post]
func (h *WorkerHandler) RequestWithdrawal(c echo.Context) error {
	var req domain.WithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return badPayload(c)
	}
	wd, rec, err := h.wallet.RequestWithdrawal(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return h.done(c, http.StatusCreated, wd, rec)
}
