package handler

import (
	"context"
	"time"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
	"github.com/microtask/taskhub/internal/core/service"
)

// Sessions is the read side of the session store.
type Sessions interface {
	Snapshot() (domain.SessionState, *domain.Session)
}

// Auth is implemented by service.AuthFlow.
type Auth interface {
	Login(ctx context.Context, email, password string) (*service.LoginOutcome, bool, error)
	Register(ctx context.Context, in ports.RegisterInput) (*service.LoginOutcome, error)
	LoginWithExternalIdentity(ctx context.Context, assertion string) (*service.LoginOutcome, error)
	SelectRole(ctx context.Context, role domain.Role) (*service.LoginOutcome, error)
	Logout(ctx context.Context) error
}

// Wallet is implemented by service.WalletService.
type Wallet interface {
	CreateTask(ctx context.Context, draft domain.TaskDraft) (*domain.Task, *service.Reconciled, error)
	DeleteTask(ctx context.Context, id string) (*service.Reconciled, error)
	ApproveSubmission(ctx context.Context, id string) (*service.Reconciled, error)
	RejectSubmission(ctx context.Context, id string) (*service.Reconciled, error)
	PurchaseCoins(ctx context.Context, req domain.PurchaseRequest) (*domain.Payment, *service.Reconciled, error)
	RequestWithdrawal(ctx context.Context, req domain.WithdrawalRequest) (*domain.Withdrawal, *service.Reconciled, error)
	Quote(coins int) string
	Economy() domain.Economy
}

// Marketplace is implemented by service.MarketplaceService.
type Marketplace interface {
	Stats(ctx context.Context) (domain.Stats, error)
	AvailableTasks(ctx context.Context) ([]domain.Task, error)
	Task(ctx context.Context, id string) (*domain.Task, error)
	MyTasks(ctx context.Context) ([]domain.Task, error)
	AllTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, in domain.TaskUpdate) error
	Submit(ctx context.Context, taskID, details string) (*domain.Submission, error)
	MySubmissions(ctx context.Context, page, limit int) (*domain.SubmissionPage, error)
	ApprovedSubmissions(ctx context.Context) ([]domain.Submission, error)
	SubmissionsToReview(ctx context.Context) ([]domain.Submission, error)
	MyWithdrawals(ctx context.Context) ([]domain.Withdrawal, error)
	PendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id string) error
	CoinPackages(ctx context.Context) ([]domain.CoinPackage, error)
	PaymentHistory(ctx context.Context) ([]domain.Payment, error)
	Notifications(ctx context.Context) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Users(ctx context.Context) ([]domain.UserSummary, error)
	TopWorkers(ctx context.Context) ([]domain.UserSummary, error)
	ChangeRole(ctx context.Context, userID string, role domain.Role) error
	DeleteUser(ctx context.Context, userID string) error
	AdminDeleteTask(ctx context.Context, id string) error
	Reports(ctx context.Context) ([]domain.Report, error)
	UpdateReport(ctx context.Context, id string, status domain.ReportStatus) error
	UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.Session, error)
}

// Unread is the last polled unread-notification count.
type Unread interface {
	Unread() (int, time.Time)
}
