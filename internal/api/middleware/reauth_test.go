package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestForcedReauth_RedirectsOnce(t *testing.T) {
	e := echo.New()
	pending := NewPendingRedirect()
	mw := ForcedReauth(pending)

	failing := mw(func(c echo.Context) error {
		pending.Navigate("/login")
		return errors.New("backend unauthorized")
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard/worker-home", nil)
	rec := httptest.NewRecorder()
	if err := failing(e.NewContext(req, rec)); err != nil {
		t.Fatalf("expected the redirect to replace the error, got %v", err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Fatalf("expected 303 to /login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	ok := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	rec = httptest.NewRecorder()
	if err := ok(e.NewContext(httptest.NewRequest(http.MethodGet, "/login", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("redirect replayed on a later request: %d", rec.Code)
	}
}

func TestForcedReauth_PassesErrorsThrough(t *testing.T) {
	e := echo.New()
	want := errors.New("boom")
	h := ForcedReauth(NewPendingRedirect())(func(c echo.Context) error { return want })

	err := h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()))
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestForcedReauth_KeepsRouteWhenResponseCommitted(t *testing.T) {
	e := echo.New()
	pending := NewPendingRedirect()
	mw := ForcedReauth(pending)

	streamed := mw(func(c echo.Context) error {
		if err := c.String(http.StatusOK, "partial view"); err != nil {
			return err
		}
		pending.Navigate("/login")
		return nil
	})
	rec := httptest.NewRecorder()
	if err := streamed(e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard/task-list", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("committed response must be left alone, got %d", rec.Code)
	}

	next := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	rec = httptest.NewRecorder()
	if err := next(e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard/worker-home", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Fatalf("expected the held redirect on the next request, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	if _, ok := pending.Take(); ok {
		t.Fatalf("redirect must be delivered once")
	}
}

func TestForcedReauth_DropsRouteAlreadyBeingServed(t *testing.T) {
	e := echo.New()
	pending := NewPendingRedirect()
	pending.Navigate("/login")

	h := ForcedReauth(pending)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(httptest.NewRequest(http.MethodGet, "/login", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("request for the pending route must not redirect to itself, got %d", rec.Code)
	}
	if _, ok := pending.Take(); ok {
		t.Fatalf("pending route must be consumed")
	}
}
