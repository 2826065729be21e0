package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/api/handler"
	"github.com/microtask/taskhub/internal/api/middleware"
	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/service"
	"github.com/microtask/taskhub/internal/infrastructure/backend"
	"github.com/microtask/taskhub/internal/infrastructure/backend/fakebackend"
	"github.com/microtask/taskhub/internal/infrastructure/credstore"
	"github.com/microtask/taskhub/internal/infrastructure/identity"
	"github.com/microtask/taskhub/internal/infrastructure/queue"
)

type console struct {
	fake  *fakebackend.Server
	store *service.SessionStore
	e     *echo.Echo
}

func newConsole(t *testing.T) *console {
	t.Helper()
	fake := fakebackend.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	log := zerolog.Nop()
	gw := backend.NewGateway(backend.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, log)
	authAPI := backend.NewAuthAPI(gw)
	creds := credstore.NewFileStore(filepath.Join(t.TempDir(), "credentials.json"), "")
	store := service.NewSessionStore(creds, authAPI, log)
	pending := middleware.NewPendingRedirect()
	gw.Bind(store, pending)

	b := service.Backends{
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
	economy := domain.DefaultEconomy()
	router := service.NewRoleRouter()
	market := service.NewMarketplaceService(store, b, log)

	e := NewRouter(Deps{
		Sessions: store,
		Router:   router,
		Auth:     service.NewAuthFlow(b.Auth, b.Users, identity.NewProvider("", time.Second, log), store, router, economy, log),
		Wallet:   service.NewWalletService(store, router, b.Tasks, b.Submissions, b.Withdrawals, b.Payments, economy, log),
		Market:   market,
		Unread:   queue.NewPoller(time.Minute, market, store, log),
		Economy:  economy,
		Pending:  pending,
		Checks: map[string]handler.Check{
			"backend":     gw.Ping,
			"credentials": creds.Check,
		},
		Registry: prometheus.NewRegistry(),
		Log:      log,
	})
	return &console{fake: fake, store: store, e: e}
}

func (c *console) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestConsole_BuyerJourney(t *testing.T) {
	c := newConsole(t)
	c.fake.SeedUser("Bea", "bea@example.com", "secret1", domain.RoleBuyer, 150)

	if rec := c.do(http.MethodGet, "/dashboard/buyer-home", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("unknown session should answer loading, got %d", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/login", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("public views also wait for restore, got %d", rec.Code)
	}

	if state := c.store.Restore(context.Background()); state != domain.SessionAnonymous {
		t.Fatalf("expected anonymous after restore, got %s", state)
	}
	if rec := c.do(http.MethodGet, "/dashboard/buyer-home", ""); rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != service.RouteLogin {
		t.Fatalf("anonymous should be sent to login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}

	rec := c.do(http.MethodPost, "/login", `{"email":"bea@example.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["redirect"]; got != service.RouteBuyerHome {
		t.Fatalf("expected buyer landing route, got %v", got)
	}

	if rec := c.do(http.MethodGet, "/login", ""); rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != service.RouteBuyerHome {
		t.Fatalf("authenticated user must not see login, got %d", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/dashboard", ""); rec.Header().Get("Location") != service.RouteBuyerHome {
		t.Fatalf("dashboard root should redirect to buyer home, got %s", rec.Header().Get("Location"))
	}
	if rec := c.do(http.MethodGet, "/dashboard/worker-home", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("buyer must not see worker views, got %d", rec.Code)
	}

	rec = c.do(http.MethodGet, "/dashboard/purchase-coins", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("purchase view: %d %s", rec.Code, rec.Body.String())
	}
	view := decode(t, rec)
	if view["view"] != "purchase-coins" {
		t.Fatalf("unexpected view %v", view["view"])
	}
	if coins := view["session"].(map[string]any)["coins"]; coins != float64(150) {
		t.Fatalf("expected 150 coins in header, got %v", coins)
	}

	due := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	draft := `{"title":"Review app","detail":"Install it","submissionInfo":"Screenshot","requiredWorkers":10,"payableAmount":50,"completionDate":"` + due + `"}`
	rec = c.do(http.MethodPost, "/dashboard/add-task", draft)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Location") != service.RoutePurchaseCoins || decode(t, rec)["redirect"] != service.RoutePurchaseCoins {
		t.Fatalf("insufficient balance must point at purchase: %s", rec.Body.String())
	}
	if c.fake.Calls("POST /tasks") != 0 {
		t.Fatalf("blocked task reached the backend")
	}

	rec = c.do(http.MethodPost, "/dashboard/purchase-coins", `{"packageId":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("purchase: %d %s", rec.Code, rec.Body.String())
	}
	bought := decode(t, rec)
	if bought["confirmed"] != true || bought["session"].(map[string]any)["coins"] != float64(650) {
		t.Fatalf("expected confirmed 650 coins, got %v", bought)
	}

	rec = c.do(http.MethodPost, "/dashboard/add-task", draft)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task after purchase: %d %s", rec.Code, rec.Body.String())
	}
	if coins := decode(t, rec)["session"].(map[string]any)["coins"]; coins != float64(150) {
		t.Fatalf("expected 150 coins after posting, got %v", coins)
	}
}

func TestConsole_RevokedSessionRedirectsOnce(t *testing.T) {
	c := newConsole(t)
	c.fake.SeedUser("Wes", "wes@example.com", "secret1", domain.RoleWorker, 0)
	c.store.Restore(context.Background())

	if rec := c.do(http.MethodPost, "/login", `{"email":"wes@example.com","password":"secret1"}`); rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	c.fake.RevokeAll()

	rec := c.do(http.MethodGet, "/dashboard/task-list", "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != service.RouteLogin {
		t.Fatalf("expected forced redirect to login, got %d %s", rec.Code, rec.Body.String())
	}
	if c.store.State() != domain.SessionAnonymous {
		t.Fatalf("session must be cleared")
	}

	// The next request is gated as anonymous; no replayed redirect is needed.
	rec = c.do(http.MethodGet, "/register", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register view should render for anonymous users, got %d", rec.Code)
	}
}

func TestConsole_HealthAndMetrics(t *testing.T) {
	c := newConsole(t)

	if rec := c.do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: %d", rec.Code)
	}
	rec := c.do(http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("readiness: %d %s", rec.Code, rec.Body.String())
	}
	rec = c.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "taskhub_console") {
		t.Fatalf("metrics should expose console request metrics")
	}
}
