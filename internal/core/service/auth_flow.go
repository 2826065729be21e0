package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
)

// LoginOutcome tells the caller where to go after an identity exchange.
type LoginOutcome struct {
	Session *domain.Session
	// Route is the role landing route, or RouteSelectRole for a first-time
	// external identity that has no role yet.
	Route string
	// Bonus is the signup bonus granted by a registration, zero otherwise.
	Bonus int
}

// AuthFlow turns credentials or an external identity into a session.
type AuthFlow struct {
	backend  ports.AuthBackend
	users    ports.UserBackend
	identity ports.IdentityProvider
	store    *SessionStore
	router   *RoleRouter
	economy  domain.Economy
	validate *validator.Validate
	log      zerolog.Logger

	mu sync.Mutex
	// assertion is kept for best-effort revoke on logout.
	assertion string
}

func NewAuthFlow(
	backend ports.AuthBackend,
	users ports.UserBackend,
	identity ports.IdentityProvider,
	store *SessionStore,
	router *RoleRouter,
	economy domain.Economy,
	log zerolog.Logger,
) *AuthFlow {
	return &AuthFlow{
		backend:  backend,
		users:    users,
		identity: identity,
		store:    store,
		router:   router,
		economy:  economy,
		validate: validator.New(),
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Login exchanges email and password for a session. Bad credentials are an
// expected outcome and reported as ok=false with a nil error; anything else
// (transport, server) comes back as an error.
func (f *AuthFlow) Login(ctx context.Context, email, password string) (*LoginOutcome, bool, error) {
	if email == "" || password == "" {
		return nil, false, nil
	}
	res, err := f.backend.Login(ctx, email, password)
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindUnauthorized, domain.KindNotFound, domain.KindValidation:
			f.log.Info().Str("email", email).Msg("login rejected")
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("login: %w", err)
	}
	out, err := f.install(ctx, res)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Register creates the account and then performs the login exchange. A
// duplicate email surfaces as domain.ErrAccountExists.
func (f *AuthFlow) Register(ctx context.Context, in ports.RegisterInput) (*LoginOutcome, error) {
	if err := f.validate.Struct(in); err != nil {
		return nil, &domain.BackendError{Kind: domain.KindValidation, Message: describeValidation(err), Err: err}
	}
	if !in.Role.SelfAssignable() {
		return nil, domain.ErrRoleNotSelectable
	}

	res, err := f.backend.Register(ctx, in)
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	if res == nil || res.Token == "" {
		res, err = f.backend.Login(ctx, in.Email, in.Password)
		if err != nil {
			return nil, fmt.Errorf("register: login after signup: %w", err)
		}
	}

	out, err := f.install(ctx, res)
	if err != nil {
		return nil, err
	}
	out.Bonus = f.economy.BonusFor(in.Role)
	f.log.Info().Str("user_id", out.Session.ID).Str("role", in.Role.String()).Int("bonus", out.Bonus).Msg("registered")
	return out, nil
}

// LoginWithExternalIdentity exchanges a provider assertion for a session.
// Whether the identity is new comes from the backend, never from the client.
func (f *AuthFlow) LoginWithExternalIdentity(ctx context.Context, assertion string) (*LoginOutcome, error) {
	id, err := f.identity.Resolve(ctx, assertion)
	if err != nil {
		return nil, fmt.Errorf("external login: %w", err)
	}
	res, err := f.backend.ExternalLogin(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("external login: %w", err)
	}
	res.Session.PendingRoleSelection = res.IsNewUser
	out, err := f.install(ctx, res)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.assertion = assertion
	f.mu.Unlock()
	return out, nil
}

// SelectRole completes a deferred signup. It is only allowed while the
// session is pending role selection; afterwards only an admin can change a
// role.
func (f *AuthFlow) SelectRole(ctx context.Context, role domain.Role) (*LoginOutcome, error) {
	cur := f.store.Current()
	if cur == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !cur.PendingRoleSelection {
		return nil, domain.ErrRoleAlreadySelected
	}
	if !role.SelfAssignable() {
		return nil, domain.ErrRoleNotSelectable
	}
	if err := f.users.UpdateRole(ctx, cur.ID, role); err != nil {
		return nil, fmt.Errorf("select role: %w", err)
	}

	if _, err := f.store.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("select role: refresh: %w", err)
	}
	if err := f.store.CompleteRoleSelection(ctx); err != nil {
		return nil, fmt.Errorf("select role: %w", err)
	}
	refreshed := f.store.Current()
	return &LoginOutcome{
		Session: refreshed,
		Route:   f.router.DefaultRoute(refreshed.Role),
		Bonus:   f.economy.BonusFor(role),
	}, nil
}

// Logout revokes the external identity on a best-effort basis and then
// always clears the in-memory session. The returned error reports that the
// persisted pair could not be removed.
func (f *AuthFlow) Logout(ctx context.Context) error {
	f.mu.Lock()
	assertion := f.assertion
	f.assertion = ""
	f.mu.Unlock()

	if assertion != "" {
		if err := f.identity.Revoke(ctx, assertion); err != nil {
			f.log.Warn().Err(err).Msg("external identity revoke failed")
		}
	}
	if _, err := f.store.Clear(ctx); err != nil {
		f.log.Error().Err(err).Msg("logout left a persisted credential")
		return err
	}
	return nil
}

func (f *AuthFlow) install(ctx context.Context, res *ports.AuthResult) (*LoginOutcome, error) {
	if err := f.store.Set(ctx, res.Session, res.Token); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	sess := f.store.Current()
	route := f.router.DefaultRoute(sess.Role)
	if sess.PendingRoleSelection {
		route = RouteSelectRole
	}
	return &LoginOutcome{Session: sess, Route: route}, nil
}
