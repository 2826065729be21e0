package ports

import (
	"context"

	"github.com/microtask/taskhub/internal/core/domain"
)

// UserBackend covers profile and role administration.
type UserBackend interface {
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)
	GetUser(ctx context.Context, id string) (*domain.UserSummary, error)
	UpdateProfile(ctx context.Context, id string, in domain.ProfileUpdate) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	DeleteUser(ctx context.Context, id string) error
	TopWorkers(ctx context.Context) ([]domain.UserSummary, error)
}

// TaskBackend covers the task lifecycle. Create deducts and Delete refunds
// the buyer balance server-side.
type TaskBackend interface {
	Available(ctx context.Context) ([]domain.Task, error)
	All(ctx context.Context) ([]domain.Task, error)
	Mine(ctx context.Context) ([]domain.Task, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	Update(ctx context.Context, id string, in domain.TaskUpdate) error
	Delete(ctx context.Context, id string) error
}

// SubmissionBackend covers the submission lifecycle. Approve pays the worker.
type SubmissionBackend interface {
	Submit(ctx context.Context, taskID, details string) (*domain.Submission, error)
	WorkerPage(ctx context.Context, page, limit int) (*domain.SubmissionPage, error)
	WorkerApproved(ctx context.Context) ([]domain.Submission, error)
	ForBuyer(ctx context.Context) ([]domain.Submission, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
}

// WithdrawalBackend covers coin withdrawals.
type WithdrawalBackend interface {
	Request(ctx context.Context, in domain.WithdrawalRequest) (*domain.Withdrawal, error)
	Mine(ctx context.Context) ([]domain.Withdrawal, error)
	Pending(ctx context.Context) ([]domain.Withdrawal, error)
	Approve(ctx context.Context, id string) error
}

// PaymentBackend covers coin purchases.
type PaymentBackend interface {
	Packages(ctx context.Context) ([]domain.CoinPackage, error)
	Process(ctx context.Context, in domain.PurchaseRequest) (*domain.Payment, error)
	History(ctx context.Context) ([]domain.Payment, error)
}

// NotificationBackend covers in-app notifications.
type NotificationBackend interface {
	List(ctx context.Context) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// ReportBackend covers admin moderation reports.
type ReportBackend interface {
	List(ctx context.Context) ([]domain.Report, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReportStatus) error
}

// StatsBackend returns role dashboards.
type StatsBackend interface {
	For(ctx context.Context, role domain.Role) (domain.Stats, error)
}
