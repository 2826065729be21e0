package service

import (
	"context"
	"errors"
	"testing"

	"github.com/microtask/taskhub/internal/core/domain"
)

func TestUnreadBadge(t *testing.T) {
	tests := map[int]string{0: "", 1: "1", 9: "9", 10: "9+", 120: "9+"}
	for n, want := range tests {
		if got := UnreadBadge(n); got != want {
			t.Errorf("UnreadBadge(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestMarketplace_StatsUseSessionRole(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, domain.RoleWorker, 42)

	stats, err := h.market.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["coins"] != 42 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestMarketplace_ReadsRequireSession(t *testing.T) {
	h := newHarness(t)

	if _, err := h.market.Stats(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
}

func TestMarketplace_UpdateProfileRefreshesSession(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, domain.RoleWorker, 0)

	sess, err := h.market.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: "Renamed"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if sess.DisplayName != "Renamed" || h.store.Current().DisplayName != "Renamed" {
		t.Fatalf("session header not refreshed: %+v", sess)
	}
}

func TestMarketplace_AdminCannotChangeOwnRole(t *testing.T) {
	h := newHarness(t)
	adminID := h.loginAs(t, domain.RoleAdmin, 0)

	if err := h.market.ChangeRole(context.Background(), adminID, domain.RoleWorker); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestMarketplace_UnauthorizedClearsSessionAndNavigatesOnce(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, domain.RoleWorker, 0)
	h.fake.RevokeAll()

	_, err := h.market.Stats(context.Background())
	if !domain.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if h.store.State() != domain.SessionAnonymous {
		t.Fatalf("401 must clear the session")
	}
	if len(h.nav.routes) != 1 || h.nav.routes[0] != RouteLogin {
		t.Fatalf("expected one navigation to login, got %v", h.nav.routes)
	}
}
