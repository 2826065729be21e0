package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/microtask/taskhub/internal/core/domain"
)

// UserAPI implements ports.UserBackend.
type UserAPI struct {
	gw *Gateway
}

func NewUserAPI(gw *Gateway) *UserAPI {
	return &UserAPI{gw: gw}
}

func (a *UserAPI) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	var out []domain.UserSummary
	if err := a.gw.Do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *UserAPI) GetUser(ctx context.Context, id string) (*domain.UserSummary, error) {
	var out domain.UserSummary
	if err := a.gw.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *UserAPI) UpdateProfile(ctx context.Context, id string, in domain.ProfileUpdate) error {
	return a.gw.Do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), in, nil)
}

func (a *UserAPI) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	body := map[string]domain.Role{"role": role}
	return a.gw.Do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/role", body, nil)
}

func (a *UserAPI) DeleteUser(ctx context.Context, id string) error {
	return a.gw.Do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

func (a *UserAPI) TopWorkers(ctx context.Context) ([]domain.UserSummary, error) {
	var out []domain.UserSummary
	if err := a.gw.Do(ctx, http.MethodGet, "/users/top/workers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
