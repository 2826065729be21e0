// Package identity decodes federated sign-in assertions and revokes them on
// logout.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/core/ports"
)

var (
	ErrMalformedAssertion = errors.New("identity assertion is not a JWT")
	ErrMissingSubject     = errors.New("identity assertion has no subject")
	ErrExpiredAssertion   = errors.New("identity assertion has expired")
)

// claims is the subset of an OpenID Connect ID token the client reads.
type claims struct {
	jwt.RegisteredClaims
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Provider reads identity claims from the assertion. The signature is not
// checked here: the backend verifies the assertion it receives.
type Provider struct {
	revokeURL string
	client    *resty.Client
	log       zerolog.Logger
	now       func() time.Time
}

// NewProvider returns a Provider. An empty revokeURL turns Revoke into a
// no-op.
func NewProvider(revokeURL string, timeout time.Duration, log zerolog.Logger) *Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		revokeURL: revokeURL,
		client:    resty.New().SetTimeout(timeout),
		log:       log.With().Str("component", "identity").Logger(),
		now:       time.Now,
	}
}

func (p *Provider) Resolve(ctx context.Context, assertion string) (ports.ExternalIdentity, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(assertion, &c); err != nil {
		return ports.ExternalIdentity{}, fmt.Errorf("%w: %v", ErrMalformedAssertion, err)
	}
	if c.Subject == "" {
		return ports.ExternalIdentity{}, ErrMissingSubject
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(p.now()) {
		return ports.ExternalIdentity{}, ErrExpiredAssertion
	}
	return ports.ExternalIdentity{
		UID:       c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		PhotoURL:  c.Picture,
		Assertion: assertion,
	}, nil
}

func (p *Provider) Revoke(ctx context.Context, assertion string) error {
	if p.revokeURL == "" || assertion == "" {
		return nil
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"token": assertion}).
		Post(p.revokeURL)
	if err != nil {
		return fmt.Errorf("revoke identity: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("revoke identity: provider answered %d", resp.StatusCode())
	}
	p.log.Debug().Msg("external identity revoked")
	return nil
}
