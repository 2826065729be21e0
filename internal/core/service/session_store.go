package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/api/metrics"
	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
)

// SessionStore is the single source of truth for who is logged in and what
// they currently hold. All writes are serialised; network calls happen
// outside the lock and their results are dropped if the session changed
// while they were in flight.
type SessionStore struct {
	creds    ports.CredentialStore
	verifier ports.SessionVerifier
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   domain.SessionState
	session *domain.Session
	token   string
	// gen is bumped by every Set and Clear; a Refresh only lands if gen
	// did not move while it was in flight.
	gen uint64

	ready     chan struct{}
	readyOnce sync.Once
}

// NewSessionStore returns a store in the Unknown state. Call Restore once at
// startup before serving any role-gated view.
func NewSessionStore(creds ports.CredentialStore, verifier ports.SessionVerifier, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		creds:    creds,
		verifier: verifier,
		log:      log.With().Str("component", "session").Logger(),
		now:      time.Now,
		ready:    make(chan struct{}),
	}
}

// Restore resolves the Unknown state from the persisted credential. It always
// lands in Authenticated or Anonymous, and only the verified snapshot is
// trusted, never the persisted one.
func (s *SessionStore) Restore(ctx context.Context) domain.SessionState {
	defer s.markReady()

	s.mu.Lock()
	if s.state != domain.SessionUnknown {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.mu.Unlock()

	cred, err := s.creds.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoCredential) {
			s.log.Warn().Err(err).Msg("credential load failed, starting anonymous")
		}
		return s.resolveAnonymous(ctx, "no_credential", false)
	}

	if s.tokenExpired(cred.Token) {
		return s.resolveAnonymous(ctx, "token_expired", true)
	}

	verified, err := s.verifier.Verify(ctx, cred.Token)
	if err != nil {
		s.log.Info().Err(err).Msg("persisted session rejected")
		return s.resolveAnonymous(ctx, "verify_failed", true)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SessionUnknown {
		// A login finished while we were verifying; it wins.
		return s.state
	}
	snap := verified.Clone()
	// The backend does not report a pending role choice; carry it over.
	snap.PendingRoleSelection = cred.Snapshot.PendingRoleSelection
	if err := s.creds.Save(ctx, s.pair(cred.Token, snap)); err != nil {
		s.log.Warn().Err(err).Msg("persist verified snapshot failed")
	}
	s.transitionLocked(domain.SessionAuthenticated, "restored")
	s.session, s.token = snap, cred.Token
	s.gen++
	return s.state
}

func (s *SessionStore) resolveAnonymous(ctx context.Context, reason string, purge bool) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SessionUnknown {
		return s.state
	}
	if purge {
		if err := s.creds.Delete(ctx); err != nil {
			s.log.Warn().Err(err).Msg("purge persisted credential failed")
		}
	}
	s.transitionLocked(domain.SessionAnonymous, reason)
	s.gen++
	return s.state
}

// WaitReady blocks until Restore has resolved or ctx is done.
func (s *SessionStore) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionStore) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Set installs a freshly exchanged session. The persisted pair is written
// first; memory only changes once storage accepted both halves.
func (s *SessionStore) Set(ctx context.Context, session domain.Session, token string) error {
	if token == "" || session.ID == "" {
		return domain.ErrIncompleteCredential
	}
	snap := session.Clone()
	snap.Optimistic = false
	if snap.IssuedAt.IsZero() {
		snap.IssuedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.creds.Save(ctx, s.pair(token, snap)); err != nil {
		return err
	}
	s.transitionLocked(domain.SessionAuthenticated, "set")
	s.session, s.token = snap, token
	s.gen++
	s.markReady()
	return nil
}

// Clear empties the session and the persisted pair. It reports whether a
// session was actually cleared, so callers can act exactly once. Memory is
// always cleared; a non-nil error wrapping domain.ErrCredentialRetained means
// the stored pair survived and would restore the session on the next start.
// Calling Clear again retries the removal.
func (s *SessionStore) Clear(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx, "clear")
}

// InvalidateToken clears the session only if token is still the active
// bearer. Late 401s for a token that has already been replaced or cleared
// are no-ops.
func (s *SessionStore) InvalidateToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || token != s.token {
		return false
	}
	// A retained pair holds a token the backend already rejected, so the
	// next Restore fails verification and purges it.
	cleared, err := s.clearLocked(context.Background(), "unauthorized")
	if err != nil {
		s.log.Warn().Err(err).Msg("invalidated token still persisted")
	}
	return cleared
}

func (s *SessionStore) clearLocked(ctx context.Context, reason string) (bool, error) {
	var retained error
	if err := s.creds.Delete(ctx); err != nil {
		retained = fmt.Errorf("%w: %w", domain.ErrCredentialRetained, err)
	}
	if s.state == domain.SessionAnonymous {
		return false, retained
	}
	s.transitionLocked(domain.SessionAnonymous, reason)
	s.session, s.token = nil, ""
	s.gen++
	s.markReady()
	return true, retained
}

// Refresh re-reads the authoritative session and overwrites the cached one,
// including any optimistic patch. The previous snapshot stays visible until
// the response lands. A result that arrives after a Clear or Set is dropped.
func (s *SessionStore) Refresh(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	if s.state != domain.SessionAuthenticated {
		s.mu.Unlock()
		return nil, domain.ErrNotAuthenticated
	}
	token, gen := s.token, s.gen
	s.mu.Unlock()

	verified, err := s.verifier.Verify(ctx, token)
	if err != nil {
		metrics.SessionRefreshTotal.WithLabelValues("error").Inc()
		if domain.IsUnauthorized(err) {
			s.InvalidateToken(token)
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		metrics.SessionRefreshTotal.WithLabelValues("discarded").Inc()
		s.log.Debug().Msg("late refresh discarded")
		return nil, domain.ErrStaleRefresh
	}
	snap := verified.Clone()
	snap.Optimistic = false
	snap.PendingRoleSelection = s.session.PendingRoleSelection
	if err := s.creds.Save(ctx, s.pair(token, snap)); err != nil {
		s.log.Warn().Err(err).Msg("persist refreshed snapshot failed")
	}
	s.session = snap
	metrics.SessionRefreshTotal.WithLabelValues("applied").Inc()
	return snap.Clone(), nil
}

// CompleteRoleSelection clears the pending-role flag after the backend
// accepted the chosen role.
func (s *SessionStore) CompleteRoleSelection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return domain.ErrNotAuthenticated
	}
	snap := s.session.Clone()
	snap.PendingRoleSelection = false
	if err := s.creds.Save(ctx, s.pair(s.token, snap)); err != nil {
		return err
	}
	s.session = snap
	return nil
}

// PatchBalanceOptimistically adjusts the displayed balance ahead of the
// authoritative Refresh. The patch is memory-only and never persisted.
func (s *SessionStore) PatchBalanceOptimistically(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return
	}
	next := s.session.CoinBalance + delta
	if next < 0 {
		next = 0
	}
	patched := s.session.Clone()
	patched.CoinBalance = next
	patched.Optimistic = true
	s.session = patched
}

// Current returns a copy of the session, or nil when not authenticated.
func (s *SessionStore) Current() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// State returns the lifecycle state.
func (s *SessionStore) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns state and session in one consistent read.
func (s *SessionStore) Snapshot() (domain.SessionState, *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.session.Clone()
}

// Token returns the active bearer token or "".
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Generation changes on every Set and Clear. Views use it to drop results
// fetched for a session that is no longer current.
func (s *SessionStore) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *SessionStore) pair(token string, snap *domain.Session) domain.PersistedCredential {
	return domain.PersistedCredential{Token: token, Snapshot: *snap, SavedAt: s.now().UTC()}
}

func (s *SessionStore) transitionLocked(to domain.SessionState, reason string) {
	from := s.state
	s.state = to
	metrics.SessionTransitionsTotal.WithLabelValues(from.String(), to.String(), reason).Inc()
	s.log.Info().Str("from", from.String()).Str("to", to.String()).Str("reason", reason).Msg("session transition")
}

// tokenExpired inspects the exp claim without verifying the signature. The
// backend remains the authority; this only skips a round trip that is bound
// to fail. Tokens that are not JWTs are left to the backend.
func (s *SessionStore) tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now())
}
