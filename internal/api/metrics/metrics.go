// Package metrics defines and registers all custom Prometheus metrics for the
// taskhub client. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on package init via
// promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskhub"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session lifecycle transitions.
// Labels:
//   - from, to: "unknown", "anonymous", "authenticated"
//   - reason: what caused it (e.g. "restored", "set", "unauthorized", "clear")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions.",
	},
	[]string{"from", "to", "reason"},
)

// SessionRefreshTotal counts authoritative session refreshes.
// Label:
//   - result: "applied", "discarded" (session changed while in flight), or "error"
var SessionRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refresh_total",
		Help:      "Total number of session refreshes, labelled by result.",
	},
	[]string{"result"},
)

// ForcedReauthTotal counts sessions cleared because the backend rejected the token.
var ForcedReauthTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_reauth_total",
		Help:      "Total number of sessions cleared by an authorization failure.",
	},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestsTotal counts backend calls.
// Labels:
//   - method: HTTP method
//   - outcome: "ok" or the failure kind ("transport", "validation", "unauthorized", "not_found", "server")
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of backend requests, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// BackendRequestDuration measures backend round trips.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Wallet metrics ────────────────────────────────────────────────────────────

// WalletMutationsTotal counts balance-changing actions.
// Labels:
//   - op: "create_task", "approve_submission", "purchase_coins", "request_withdrawal", …
//   - outcome: "ok", "unconfirmed" (refresh failed), "blocked" (client-side), "rejected" (backend)
var WalletMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_mutations_total",
		Help:      "Total number of balance-mutating actions, by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationPollsTotal counts unread-count polls.
// Label:
//   - result: "ok", "skipped" (anonymous), "failed", "discarded"
var NotificationPollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_polls_total",
		Help:      "Total number of unread notification polls, by result.",
	},
	[]string{"result"},
)

// NotificationsUnread is the last unread count observed.
var NotificationsUnread = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_unread",
		Help:      "Unread notifications for the current session at the last poll.",
	},
)
