package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
	"github.com/microtask/taskhub/internal/core/service"
)

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (*service.LoginOutcome, bool, error) {
			if email != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected credentials: %s %s", email, password)
			}
			return &service.LoginOutcome{
				Session: &domain.Session{ID: "u1", Email: email, Role: domain.RoleBuyer, CoinBalance: 50},
				Route:   service.RouteBuyerHome,
			}, true, nil
		},
	}
	handler := NewAuthHandler(stub, domain.DefaultEconomy())

	c, rec := postJSON(e, "/login", `{"email":"alice@example.com","password":"secret1"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Redirect != service.RouteBuyerHome {
		t.Fatalf("expected buyer home, got %q", resp.Redirect)
	}
	if resp.Session == nil || resp.Session.Coins != 50 {
		t.Fatalf("unexpected session: %+v", resp.Session)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (*service.LoginOutcome, bool, error) {
			return nil, false, nil
		},
	}
	handler := NewAuthHandler(stub, domain.DefaultEconomy())

	c, rec := postJSON(e, "/login", `{"email":"alice@example.com","password":"wrong"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_TransportErrorIsReturned(t *testing.T) {
	e := newEcho()
	want := &domain.BackendError{Kind: domain.KindTransport, Err: errors.New("dial tcp: refused")}
	stub := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (*service.LoginOutcome, bool, error) {
			return nil, false, want
		},
	}
	handler := NewAuthHandler(stub, domain.DefaultEconomy())

	c, _ := postJSON(e, "/login", `{"email":"alice@example.com","password":"secret1"}`)
	if err := handler.Login(c); !errors.Is(err, want) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuth{}, domain.DefaultEconomy())

	c, rec := postJSON(e, "/login", `{"email":`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_MissingPassword(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuth{}, domain.DefaultEconomy())

	c, _ := postJSON(e, "/login", `{"email":"alice@example.com"}`)
	err := handler.Login(c)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(ve.Message, "password is required") {
		t.Fatalf("unexpected message: %q", ve.Message)
	}
}

func TestAuthHandler_Register_Created(t *testing.T) {
	e := newEcho()
	stub := &stubAuth{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*service.LoginOutcome, error) {
			if in.Role != domain.RoleWorker || in.Name != "Bob" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &service.LoginOutcome{
				Session: &domain.Session{ID: "u2", Role: domain.RoleWorker, CoinBalance: 10},
				Route:   service.RouteWorkerHome,
				Bonus:   10,
			}, nil
		},
	}
	handler := NewAuthHandler(stub, domain.DefaultEconomy())

	c, rec := postJSON(e, "/register", `{"name":"Bob","email":"bob@example.com","password":"secret1","role":"worker"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Bonus != 10 {
		t.Fatalf("expected bonus 10, got %d", resp.Bonus)
	}
}

func TestAuthHandler_Register_AccountExists(t *testing.T) {
	e := newEcho()
	stub := &stubAuth{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*service.LoginOutcome, error) {
			return nil, &domain.BackendError{Kind: domain.KindValidation, Status: 409, Reason: domain.ReasonConflict}
		},
	}
	handler := NewAuthHandler(stub, domain.DefaultEconomy())

	c, _ := postJSON(e, "/register", `{"name":"Bob","email":"bob@example.com","password":"secret1","role":"buyer"}`)
	if err := handler.Register(c); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected account exists, got %v", err)
	}
}

func TestAuthHandler_RegisterForm_ShowsBonusPerRole(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuth{}, domain.DefaultEconomy())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/register", nil), rec)
	if err := handler.RegisterForm(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Data struct {
			Bonus map[string]int `json:"bonus"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Data.Bonus["worker"] >= resp.Data.Bonus["buyer"] {
		t.Fatalf("worker bonus must be below buyer bonus: %+v", resp.Data.Bonus)
	}
}

func TestAuthHandler_ExternalLogin_NewIdentitySelectsRole(t *testing.T) {
	e := newEcho()
	stub := &stubAuth{
		externalFn: func(ctx context.Context, assertion string) (*service.LoginOutcome, error) {
			if assertion != "id-token" {
				t.Fatalf("unexpected assertion %q", assertion)
			}
			return &service.LoginOutcome{
				Session: &domain.Session{ID: "u3", PendingRoleSelection: true},
				Route:   service.RouteSelectRole,
			}, nil
		},
	}
	handler := NewAuthHandler(stub, domain.DefaultEconomy())

	c, rec := postJSON(e, "/auth/external", `{"idToken":"id-token"}`)
	if err := handler.ExternalLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Redirect != service.RouteSelectRole {
		t.Fatalf("expected role selection, got %q", resp.Redirect)
	}
}

func TestAuthHandler_SelectRole_RejectsAdmin(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuth{}, domain.DefaultEconomy())

	c, _ := postJSON(e, "/select-role", `{"role":"admin"}`)
	var ve *ValidationError
	if err := handler.SelectRole(c); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newEcho()
	stub := &stubAuth{}
	handler := NewAuthHandler(stub, domain.DefaultEconomy())

	c, rec := postJSON(e, "/logout", "")
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !stub.loggedOut {
		t.Fatalf("logout not called")
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != service.RouteLogin {
		t.Fatalf("expected 303 to /login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestAuthHandler_LogoutReportsRetainedCredential(t *testing.T) {
	e := newEcho()
	stub := &stubAuth{logoutErr: fmt.Errorf("%w: disk full", domain.ErrCredentialRetained)}
	handler := NewAuthHandler(stub, domain.DefaultEconomy())

	c, rec := postJSON(e, "/logout", "")
	err := handler.Logout(c)
	if !errors.Is(err, domain.ErrCredentialRetained) {
		t.Fatalf("expected retained credential error, got %v", err)
	}
	if rec.Header().Get(echo.HeaderLocation) != "" || c.Response().Committed {
		t.Fatalf("failed logout must not redirect to login")
	}
}
