package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/microtask/taskhub/internal/core/domain"
)

// NotificationAPI implements ports.NotificationBackend.
type NotificationAPI struct {
	gw *Gateway
}

func NewNotificationAPI(gw *Gateway) *NotificationAPI {
	return &NotificationAPI{gw: gw}
}

func (a *NotificationAPI) List(ctx context.Context) ([]domain.Notification, error) {
	var out []domain.Notification
	if err := a.gw.Do(ctx, http.MethodGet, "/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *NotificationAPI) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := a.gw.Do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (a *NotificationAPI) MarkRead(ctx context.Context, id string) error {
	return a.gw.Do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (a *NotificationAPI) MarkAllRead(ctx context.Context) error {
	return a.gw.Do(ctx, http.MethodPatch, "/notifications/read-all", nil, nil)
}

// ReportAPI implements ports.ReportBackend.
type ReportAPI struct {
	gw *Gateway
}

func NewReportAPI(gw *Gateway) *ReportAPI {
	return &ReportAPI{gw: gw}
}

func (a *ReportAPI) List(ctx context.Context) ([]domain.Report, error) {
	var out []domain.Report
	if err := a.gw.Do(ctx, http.MethodGet, "/reports", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *ReportAPI) UpdateStatus(ctx context.Context, id string, status domain.ReportStatus) error {
	body := map[string]domain.ReportStatus{"status": status}
	return a.gw.Do(ctx, http.MethodPatch, "/reports/"+url.PathEscape(id)+"/status", body, nil)
}

// StatsAPI implements ports.StatsBackend.
type StatsAPI struct {
	gw *Gateway
}

func NewStatsAPI(gw *Gateway) *StatsAPI {
	return &StatsAPI{gw: gw}
}

func (a *StatsAPI) For(ctx context.Context, role domain.Role) (domain.Stats, error) {
	out := domain.Stats{}
	if err := a.gw.Do(ctx, http.MethodGet, "/stats/"+string(role), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
