package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
	"github.com/microtask/taskhub/internal/core/service"
)

type stubAuth struct {
	loginFn      func(ctx context.Context, email, password string) (*service.LoginOutcome, bool, error)
	registerFn   func(ctx context.Context, in ports.RegisterInput) (*service.LoginOutcome, error)
	externalFn   func(ctx context.Context, assertion string) (*service.LoginOutcome, error)
	selectRoleFn func(ctx context.Context, role domain.Role) (*service.LoginOutcome, error)
	loggedOut    bool
	logoutErr    error
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (*service.LoginOutcome, bool, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuth) Register(ctx context.Context, in ports.RegisterInput) (*service.LoginOutcome, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuth) LoginWithExternalIdentity(ctx context.Context, assertion string) (*service.LoginOutcome, error) {
	return s.externalFn(ctx, assertion)
}

func (s *stubAuth) SelectRole(ctx context.Context, role domain.Role) (*service.LoginOutcome, error) {
	return s.selectRoleFn(ctx, role)
}

func (s *stubAuth) Logout(ctx context.Context) error {
	s.loggedOut = true
	return s.logoutErr
}

// stubMarket implements only what a test sets; anything else panics on the
// nil embedded interface.
type stubMarket struct {
	Marketplace
	statsFn       func(ctx context.Context) (domain.Stats, error)
	approvedFn    func(ctx context.Context) ([]domain.Submission, error)
	withdrawalsFn func(ctx context.Context) ([]domain.Withdrawal, error)
	packagesFn    func(ctx context.Context) ([]domain.CoinPackage, error)
	changeRoleFn  func(ctx context.Context, userID string, role domain.Role) error
	markReadFn    func(ctx context.Context, id string) error
}

func (s *stubMarket) Stats(ctx context.Context) (domain.Stats, error) { return s.statsFn(ctx) }

func (s *stubMarket) ApprovedSubmissions(ctx context.Context) ([]domain.Submission, error) {
	return s.approvedFn(ctx)
}

func (s *stubMarket) MyWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	return s.withdrawalsFn(ctx)
}

func (s *stubMarket) CoinPackages(ctx context.Context) ([]domain.CoinPackage, error) {
	return s.packagesFn(ctx)
}

func (s *stubMarket) ChangeRole(ctx context.Context, userID string, role domain.Role) error {
	return s.changeRoleFn(ctx, userID, role)
}

func (s *stubMarket) MarkRead(ctx context.Context, id string) error { return s.markReadFn(ctx, id) }

type stubWallet struct {
	Wallet
	economy      domain.Economy
	createFn     func(ctx context.Context, draft domain.TaskDraft) (*domain.Task, *service.Reconciled, error)
	withdrawFn   func(ctx context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, *service.Reconciled, error)
	purchaseFn   func(ctx context.Context, req domain.PurchaseRequest) (*domain.Payment, *service.Reconciled, error)
	approveSubFn func(ctx context.Context, id string) (*service.Reconciled, error)
}

func (s *stubWallet) CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, *service.Reconciled, error) {
	return s.createFn(ctx, draft)
}

func (s *stubWallet) RequestWithdrawal(ctx context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, *service.Reconciled, error) {
	return s.withdrawFn(ctx, req)
}

func (s *stubWallet) PurchaseCoins(ctx context.Context, req domain.PurchaseRequest) (*domain.Payment, *service.Reconciled, error) {
	return s.purchaseFn(ctx, req)
}

func (s *stubWallet) ApproveSubmission(ctx context.Context, id string) (*service.Reconciled, error) {
	return s.approveSubFn(ctx, id)
}

func (s *stubWallet) Economy() domain.Economy { return s.economy }

func (s *stubWallet) Quote(coins int) string {
	return s.economy.CoinsToDollars(coins).StringFixed(2)
}

type fixedUnread int

func (f fixedUnread) Unread() (int, time.Time) { return int(f), time.Time{} }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func withSession(c echo.Context, sess *domain.Session) echo.Context {
	c.Set(SessionKey, sess)
	return c
}
