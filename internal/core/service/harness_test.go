package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
	"github.com/microtask/taskhub/internal/infrastructure/backend"
	"github.com/microtask/taskhub/internal/infrastructure/backend/fakebackend"
)

// memCreds is an in-memory credential store with the same pair semantics as
// the real drivers.
type memCreds struct {
	mu        sync.Mutex
	cred      *domain.PersistedCredential
	saves     int
	saveErr   error
	deleteErr error
}

func (m *memCreds) Load(ctx context.Context) (*domain.PersistedCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil, domain.ErrNoCredential
	}
	c := *m.cred
	return &c, nil
}

func (m *memCreds) Save(ctx context.Context, cred domain.PersistedCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !cred.Complete() {
		return domain.ErrIncompleteCredential
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.cred = &cred
	return nil
}

func (m *memCreds) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.cred = nil
	return nil
}

func (m *memCreds) stored() *domain.PersistedCredential {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil
	}
	c := *m.cred
	return &c
}

type verifierFunc func(ctx context.Context, token string) (*domain.Session, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*domain.Session, error) {
	return f(ctx, token)
}

type recordingNav struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNav) Navigate(route string) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
}

type stubIdentity struct {
	revokeErr error
	revoked   []string
}

func (s *stubIdentity) Resolve(ctx context.Context, assertion string) (ports.ExternalIdentity, error) {
	if assertion == "" {
		return ports.ExternalIdentity{}, errors.New("empty assertion")
	}
	return ports.ExternalIdentity{UID: "ext-" + assertion, Name: "Gus", Email: assertion + "@example.com", Assertion: assertion}, nil
}

func (s *stubIdentity) Revoke(ctx context.Context, assertion string) error {
	s.revoked = append(s.revoked, assertion)
	return s.revokeErr
}

// harness wires the real services to the in-memory fake backend.
type harness struct {
	fake     *fakebackend.Server
	creds    *memCreds
	nav      *recordingNav
	identity *stubIdentity
	store    *SessionStore
	router   *RoleRouter
	auth     *AuthFlow
	wallet   *WalletService
	market   *MarketplaceService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := fakebackend.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	log := zerolog.Nop()
	gw := backend.NewGateway(backend.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, log)
	authAPI := backend.NewAuthAPI(gw)
	creds := &memCreds{}
	nav := &recordingNav{}
	store := NewSessionStore(creds, authAPI, log)
	gw.Bind(store, nav)

	b := Backends{
		Auth:          authAPI,
		Users:         backend.NewUserAPI(gw),
		Tasks:         backend.NewTaskAPI(gw),
		Submissions:   backend.NewSubmissionAPI(gw),
		Withdrawals:   backend.NewWithdrawalAPI(gw),
		Payments:      backend.NewPaymentAPI(gw),
		Notifications: backend.NewNotificationAPI(gw),
		Reports:       backend.NewReportAPI(gw),
		Stats:         backend.NewStatsAPI(gw),
	}
	router := NewRoleRouter()
	identity := &stubIdentity{}
	economy := domain.DefaultEconomy()

	return &harness{
		fake:     fake,
		creds:    creds,
		nav:      nav,
		identity: identity,
		store:    store,
		router:   router,
		auth:     NewAuthFlow(b.Auth, b.Users, identity, store, router, economy, log),
		wallet:   NewWalletService(store, router, b.Tasks, b.Submissions, b.Withdrawals, b.Payments, economy, log),
		market:   NewMarketplaceService(store, b, log),
	}
}

// loginAs seeds a user with coins and logs in as them.
func (h *harness) loginAs(t *testing.T, role domain.Role, coins int) string {
	t.Helper()
	email := string(role) + "@example.com"
	id := h.fake.SeedUser("User "+string(role), email, "secret1", role, coins)
	if _, ok, err := h.auth.Login(context.Background(), email, "secret1"); err != nil || !ok {
		t.Fatalf("login as %s: ok=%v err=%v", role, ok, err)
	}
	return id
}
