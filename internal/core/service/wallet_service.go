package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/api/metrics"
	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
)

// ActionError is a failed balance mutation. Redirect names the view that can
// fix the problem (the purchase flow for an insufficient balance), and Local
// is true when the action was blocked before any request was sent.
type ActionError struct {
	Op       string
	Err      error
	Redirect string
	Local    bool
}

func (e *ActionError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ActionError) Unwrap() error { return e.Err }

// Reconciled is the state after a successful mutation.
type Reconciled struct {
	Session *domain.Session
	// Confirmed is true when the balance shown is the backend's value read
	// after the mutation, false when the follow-up refresh failed and the
	// optimistic value is all we have.
	Confirmed bool
}

// WalletService runs the actions that change a coin balance. Each one checks
// the cached balance for early feedback only, calls the backend, and then
// refreshes the session before reporting success.
type WalletService struct {
	store       *SessionStore
	router      *RoleRouter
	tasks       ports.TaskBackend
	submissions ports.SubmissionBackend
	withdrawals ports.WithdrawalBackend
	payments    ports.PaymentBackend
	economy     domain.Economy
	validate    *validator.Validate
	log         zerolog.Logger
	now         func() time.Time
}

func NewWalletService(
	store *SessionStore,
	router *RoleRouter,
	tasks ports.TaskBackend,
	submissions ports.SubmissionBackend,
	withdrawals ports.WithdrawalBackend,
	payments ports.PaymentBackend,
	economy domain.Economy,
	log zerolog.Logger,
) *WalletService {
	return &WalletService{
		store:       store,
		router:      router,
		tasks:       tasks,
		submissions: submissions,
		withdrawals: withdrawals,
		payments:    payments,
		economy:     economy,
		validate:    validator.New(),
		log:         log.With().Str("component", "wallet").Logger(),
		now:         time.Now,
	}
}

// CreateTask posts a task. The buyer is charged requiredWorkers × payableAmount.
func (w *WalletService) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, *Reconciled, error) {
	const op = "create_task"
	sess, err := w.session()
	if err != nil {
		return nil, nil, w.fail(op, err, false)
	}
	if err := w.validate.Struct(draft); err != nil {
		return nil, nil, w.fail(op, validationError(err), true)
	}
	if err := w.economy.CheckTaskDraft(draft, sess.CoinBalance, w.now()); err != nil {
		return nil, nil, w.fail(op, err, true)
	}

	task, err := w.tasks.Create(ctx, draft)
	if err != nil {
		return nil, nil, w.fail(op, err, false)
	}
	rec := w.reconcile(ctx, op, -w.economy.TaskCost(draft.RequiredWorkers, draft.PayableAmount))
	return task, rec, nil
}

// DeleteTask removes a task; the backend refunds the unspent remainder.
func (w *WalletService) DeleteTask(ctx context.Context, id string) (*Reconciled, error) {
	const op = "delete_task"
	if _, err := w.session(); err != nil {
		return nil, w.fail(op, err, false)
	}
	if err := w.tasks.Delete(ctx, id); err != nil {
		return nil, w.fail(op, err, false)
	}
	return w.reconcile(ctx, op, 0), nil
}

// ApproveSubmission approves a worker's submission; the backend pays the worker.
func (w *WalletService) ApproveSubmission(ctx context.Context, id string) (*Reconciled, error) {
	const op = "approve_submission"
	if _, err := w.session(); err != nil {
		return nil, w.fail(op, err, false)
	}
	if err := w.submissions.Approve(ctx, id); err != nil {
		return nil, w.fail(op, err, false)
	}
	return w.reconcile(ctx, op, 0), nil
}

// RejectSubmission rejects a submission; the backend frees the worker slot.
func (w *WalletService) RejectSubmission(ctx context.Context, id string) (*Reconciled, error) {
	const op = "reject_submission"
	if _, err := w.session(); err != nil {
		return nil, w.fail(op, err, false)
	}
	if err := w.submissions.Reject(ctx, id); err != nil {
		return nil, w.fail(op, err, false)
	}
	return w.reconcile(ctx, op, 0), nil
}

// PurchaseCoins buys one of the backend's coin packages.
func (w *WalletService) PurchaseCoins(ctx context.Context, req domain.PurchaseRequest) (*domain.Payment, *Reconciled, error) {
	const op = "purchase_coins"
	if _, err := w.session(); err != nil {
		return nil, nil, w.fail(op, err, false)
	}
	if err := w.validate.Struct(req); err != nil {
		return nil, nil, w.fail(op, validationError(err), true)
	}
	packages, err := w.payments.Packages(ctx)
	if err != nil {
		return nil, nil, w.fail(op, err, false)
	}
	pkg, ok := findPackage(packages, req.PackageID)
	if !ok {
		return nil, nil, w.fail(op, domain.ErrUnknownPackage, true)
	}

	payment, err := w.payments.Process(ctx, req)
	if err != nil {
		return nil, nil, w.fail(op, err, false)
	}
	return payment, w.reconcile(ctx, op, pkg.Coins), nil
}

// RequestWithdrawal asks to convert coins into money. Amounts under the
// minimum never reach the backend.
func (w *WalletService) RequestWithdrawal(ctx context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, *Reconciled, error) {
	const op = "request_withdrawal"
	sess, err := w.session()
	if err != nil {
		return nil, nil, w.fail(op, err, false)
	}
	if err := w.economy.CheckWithdrawal(req.WithdrawalCoin, sess.CoinBalance); err != nil {
		return nil, nil, w.fail(op, err, true)
	}
	if err := w.validate.Struct(req); err != nil {
		return nil, nil, w.fail(op, validationError(err), true)
	}

	wd, err := w.withdrawals.Request(ctx, req)
	if err != nil {
		return nil, nil, w.fail(op, err, false)
	}
	return wd, w.reconcile(ctx, op, -req.WithdrawalCoin), nil
}

// Quote reports the dollar value of coins at the configured exchange rate.
func (w *WalletService) Quote(coins int) string {
	return w.economy.CoinsToDollars(coins).StringFixed(2)
}

// Economy exposes the rules views mirror for early feedback.
func (w *WalletService) Economy() domain.Economy { return w.economy }

// reconcile runs strictly after the mutation succeeded: patch the displayed
// balance, then overwrite it with the authoritative value.
func (w *WalletService) reconcile(ctx context.Context, op string, delta int) *Reconciled {
	if delta != 0 {
		w.store.PatchBalanceOptimistically(delta)
	}
	sess, err := w.store.Refresh(ctx)
	if err != nil {
		w.log.Warn().Err(err).Str("op", op).Msg("balance refresh after mutation failed")
		metrics.WalletMutationsTotal.WithLabelValues(op, "unconfirmed").Inc()
		return &Reconciled{Session: w.store.Current(), Confirmed: false}
	}
	metrics.WalletMutationsTotal.WithLabelValues(op, "ok").Inc()
	w.log.Info().Str("op", op).Int("balance", sess.CoinBalance).Msg("balance reconciled")
	return &Reconciled{Session: sess, Confirmed: true}
}

func (w *WalletService) session() (*domain.Session, error) {
	sess := w.store.Current()
	if sess == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return sess, nil
}

func (w *WalletService) fail(op string, err error, local bool) error {
	ae := &ActionError{Op: op, Err: err, Local: local}
	if errors.Is(err, domain.ErrInsufficientBalance) {
		if sess := w.store.Current(); sess != nil && w.router.CanAccess(sess.Role, RoutePurchaseCoins) {
			ae.Redirect = RoutePurchaseCoins
		}
	}
	outcome := "rejected"
	if local {
		outcome = "blocked"
	}
	metrics.WalletMutationsTotal.WithLabelValues(op, outcome).Inc()
	return ae
}

func validationError(err error) error {
	return &domain.BackendError{Kind: domain.KindValidation, Message: describeValidation(err), Err: fmt.Errorf("invalid input: %w", err)}
}

func findPackage(packages []domain.CoinPackage, id int) (domain.CoinPackage, bool) {
	for _, p := range packages {
		if p.ID == id {
			return p, true
		}
	}
	return domain.CoinPackage{}, false
}
