package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
)

// UnreadBadge renders an unread count the way the dashboard header shows it.
func UnreadBadge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 9:
		return "9+"
	default:
		return fmt.Sprintf("%d", n)
	}
}

// MarketplaceService backs the read views and the mutations that do not
// touch the caller's own balance.
type MarketplaceService struct {
	store         *SessionStore
	users         ports.UserBackend
	tasks         ports.TaskBackend
	submissions   ports.SubmissionBackend
	withdrawals   ports.WithdrawalBackend
	payments      ports.PaymentBackend
	notifications ports.NotificationBackend
	reports       ports.ReportBackend
	stats         ports.StatsBackend
	validate      *validator.Validate
	log           zerolog.Logger
}

// Backends groups the REST collaborators so constructors stay readable.
type Backends struct {
	Auth          ports.AuthBackend
	Users         ports.UserBackend
	Tasks         ports.TaskBackend
	Submissions   ports.SubmissionBackend
	Withdrawals   ports.WithdrawalBackend
	Payments      ports.PaymentBackend
	Notifications ports.NotificationBackend
	Reports       ports.ReportBackend
	Stats         ports.StatsBackend
}

func NewMarketplaceService(store *SessionStore, b Backends, log zerolog.Logger) *MarketplaceService {
	return &MarketplaceService{
		store:         store,
		users:         b.Users,
		tasks:         b.Tasks,
		submissions:   b.Submissions,
		withdrawals:   b.Withdrawals,
		payments:      b.Payments,
		notifications: b.Notifications,
		reports:       b.Reports,
		stats:         b.Stats,
		validate:      validator.New(),
		log:           log.With().Str("component", "marketplace").Logger(),
	}
}

// load runs fetch inside a view and drops the result if the session changed
// while the request was in flight.
func load[T any](ctx context.Context, s *SessionStore, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	view := s.Mount()
	defer view.Unmount()

	out, err := fetch(ctx)
	if err != nil {
		return zero, err
	}
	var result T
	if !view.Apply(func() { result = out }) {
		return zero, domain.ErrStaleRefresh
	}
	return result, nil
}

func (m *MarketplaceService) Stats(ctx context.Context) (domain.Stats, error) {
	sess := m.store.Current()
	if sess == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return load(ctx, m.store, func(ctx context.Context) (domain.Stats, error) {
		return m.stats.For(ctx, sess.Role)
	})
}

func (m *MarketplaceService) AvailableTasks(ctx context.Context) ([]domain.Task, error) {
	return load(ctx, m.store, m.tasks.Available)
}

func (m *MarketplaceService) Task(ctx context.Context, id string) (*domain.Task, error) {
	return load(ctx, m.store, func(ctx context.Context) (*domain.Task, error) {
		return m.tasks.Get(ctx, id)
	})
}

func (m *MarketplaceService) MyTasks(ctx context.Context) ([]domain.Task, error) {
	return load(ctx, m.store, m.tasks.Mine)
}

func (m *MarketplaceService) AllTasks(ctx context.Context) ([]domain.Task, error) {
	return load(ctx, m.store, m.tasks.All)
}

// UpdateTask edits title, detail or submission info; cost fields are fixed
// once a task is posted.
func (m *MarketplaceService) UpdateTask(ctx context.Context, id string, in domain.TaskUpdate) error {
	if in == (domain.TaskUpdate{}) {
		return &domain.BackendError{Kind: domain.KindValidation, Message: "nothing to update"}
	}
	return m.tasks.Update(ctx, id, in)
}

// Submit records a worker's completion claim for a task.
func (m *MarketplaceService) Submit(ctx context.Context, taskID, details string) (*domain.Submission, error) {
	if details == "" {
		return nil, &domain.BackendError{Kind: domain.KindValidation, Message: "submission details are required"}
	}
	return m.submissions.Submit(ctx, taskID, details)
}

func (m *MarketplaceService) MySubmissions(ctx context.Context, page, limit int) (*domain.SubmissionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return load(ctx, m.store, func(ctx context.Context) (*domain.SubmissionPage, error) {
		return m.submissions.WorkerPage(ctx, page, limit)
	})
}

func (m *MarketplaceService) ApprovedSubmissions(ctx context.Context) ([]domain.Submission, error) {
	return load(ctx, m.store, m.submissions.WorkerApproved)
}

func (m *MarketplaceService) SubmissionsToReview(ctx context.Context) ([]domain.Submission, error) {
	return load(ctx, m.store, m.submissions.ForBuyer)
}

func (m *MarketplaceService) MyWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	return load(ctx, m.store, m.withdrawals.Mine)
}

func (m *MarketplaceService) PendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	return load(ctx, m.store, m.withdrawals.Pending)
}

// ApproveWithdrawal is the admin side of a payout; the worker's balance was
// already debited when the request was made.
func (m *MarketplaceService) ApproveWithdrawal(ctx context.Context, id string) error {
	return m.withdrawals.Approve(ctx, id)
}

func (m *MarketplaceService) CoinPackages(ctx context.Context) ([]domain.CoinPackage, error) {
	return load(ctx, m.store, m.payments.Packages)
}

func (m *MarketplaceService) PaymentHistory(ctx context.Context) ([]domain.Payment, error) {
	return load(ctx, m.store, m.payments.History)
}

func (m *MarketplaceService) Notifications(ctx context.Context) ([]domain.Notification, error) {
	return load(ctx, m.store, m.notifications.List)
}

func (m *MarketplaceService) UnreadCount(ctx context.Context) (int, error) {
	return m.notifications.UnreadCount(ctx)
}

func (m *MarketplaceService) MarkRead(ctx context.Context, id string) error {
	return m.notifications.MarkRead(ctx, id)
}

func (m *MarketplaceService) MarkAllRead(ctx context.Context) error {
	return m.notifications.MarkAllRead(ctx)
}

func (m *MarketplaceService) Users(ctx context.Context) ([]domain.UserSummary, error) {
	return load(ctx, m.store, m.users.ListUsers)
}

func (m *MarketplaceService) TopWorkers(ctx context.Context) ([]domain.UserSummary, error) {
	return m.users.TopWorkers(ctx)
}

// ChangeRole is the admin override of a user's role. Admins cannot demote
// themselves through it.
func (m *MarketplaceService) ChangeRole(ctx context.Context, userID string, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrRoleNotSelectable
	}
	if sess := m.store.Current(); sess != nil && sess.ID == userID {
		return domain.ErrForbidden
	}
	if err := m.users.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	m.log.Info().Str("user_id", userID).Str("role", role.String()).Msg("role changed by admin")
	return nil
}

func (m *MarketplaceService) DeleteUser(ctx context.Context, userID string) error {
	if sess := m.store.Current(); sess != nil && sess.ID == userID {
		return domain.ErrForbidden
	}
	return m.users.DeleteUser(ctx, userID)
}

// AdminDeleteTask removes any task. Refunds go to the owning buyer, not to
// the admin, so the admin session is not refreshed.
func (m *MarketplaceService) AdminDeleteTask(ctx context.Context, id string) error {
	return m.tasks.Delete(ctx, id)
}

func (m *MarketplaceService) Reports(ctx context.Context) ([]domain.Report, error) {
	return load(ctx, m.store, m.reports.List)
}

func (m *MarketplaceService) UpdateReport(ctx context.Context, id string, status domain.ReportStatus) error {
	switch status {
	case domain.ReportPending, domain.ReportResolved, domain.ReportDismissed:
	default:
		return &domain.BackendError{Kind: domain.KindValidation, Message: "unknown report status"}
	}
	return m.reports.UpdateStatus(ctx, id, status)
}

// UpdateProfile saves name/photo and refreshes the session so the header
// shows the new values.
func (m *MarketplaceService) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.Session, error) {
	sess := m.store.Current()
	if sess == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if err := m.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if err := m.users.UpdateProfile(ctx, sess.ID, in); err != nil {
		return nil, err
	}
	return m.store.Refresh(ctx)
}
