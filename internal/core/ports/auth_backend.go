package ports

import (
	"context"

	"github.com/microtask/taskhub/internal/core/domain"
)

// RegisterInput is the profile submitted at signup.
type RegisterInput struct {
	Name     string      `json:"name"     validate:"required,min=2"`
	Email    string      `json:"email"    validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	PhotoURL string      `json:"photoUrl" validate:"omitempty,url"`
	Role     domain.Role `json:"role"     validate:"required,oneof=worker buyer"`
}

// ExternalIdentity is an identity asserted by a federated provider.
type ExternalIdentity struct {
	UID      string
	Name     string
	Email    string
	PhotoURL string
	// Assertion is the provider token the backend verifies.
	Assertion string
}

// AuthResult is what the backend returns from any identity exchange.
type AuthResult struct {
	Token     string
	Session   domain.Session
	IsNewUser bool
}

// AuthBackend is the identity-exchange part of the REST surface.
type AuthBackend interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ExternalLogin(ctx context.Context, id ExternalIdentity) (*AuthResult, error)
	SessionVerifier
}

// SessionVerifier re-reads the authoritative session for a token.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Session, error)
}

// IdentityProvider is the federated sign-in collaborator.
type IdentityProvider interface {
	// Resolve turns a provider assertion into an identity.
	Resolve(ctx context.Context, assertion string) (ExternalIdentity, error)
	// Revoke ends the provider-side session. Failures are non-fatal to logout.
	Revoke(ctx context.Context, assertion string) error
}

// Navigator performs forced navigation, e.g. back to the login entry point.
type Navigator interface {
	Navigate(route string)
}

// SessionSource is what the gateway needs from the session store.
type SessionSource interface {
	// Token returns the active bearer token, or "" when anonymous.
	Token() string
	// InvalidateToken clears the session if token is still the active one.
	// It reports whether this call performed the clear.
	InvalidateToken(token string) bool
}
