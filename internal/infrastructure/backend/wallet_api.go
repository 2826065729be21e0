package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/microtask/taskhub/internal/core/domain"
)

// WithdrawalAPI implements ports.WithdrawalBackend.
type WithdrawalAPI struct {
	gw *Gateway
}

func NewWithdrawalAPI(gw *Gateway) *WithdrawalAPI {
	return &WithdrawalAPI{gw: gw}
}

func (a *WithdrawalAPI) Request(ctx context.Context, in domain.WithdrawalRequest) (*domain.Withdrawal, error) {
	var out domain.Withdrawal
	if err := a.gw.Do(ctx, http.MethodPost, "/withdrawals", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *WithdrawalAPI) Mine(ctx context.Context) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	if err := a.gw.Do(ctx, http.MethodGet, "/withdrawals/worker", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *WithdrawalAPI) Pending(ctx context.Context) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	if err := a.gw.Do(ctx, http.MethodGet, "/withdrawals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *WithdrawalAPI) Approve(ctx context.Context, id string) error {
	return a.gw.Do(ctx, http.MethodPatch, "/withdrawals/"+url.PathEscape(id)+"/approve", nil, nil)
}

// PaymentAPI implements ports.PaymentBackend.
type PaymentAPI struct {
	gw *Gateway
}

func NewPaymentAPI(gw *Gateway) *PaymentAPI {
	return &PaymentAPI{gw: gw}
}

func (a *PaymentAPI) Packages(ctx context.Context) ([]domain.CoinPackage, error) {
	var out []domain.CoinPackage
	if err := a.gw.Do(ctx, http.MethodGet, "/payments/packages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *PaymentAPI) Process(ctx context.Context, in domain.PurchaseRequest) (*domain.Payment, error) {
	var out domain.Payment
	if err := a.gw.Do(ctx, http.MethodPost, "/payments/process", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *PaymentAPI) History(ctx context.Context) ([]domain.Payment, error) {
	var out []domain.Payment
	if err := a.gw.Do(ctx, http.MethodGet, "/payments/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
