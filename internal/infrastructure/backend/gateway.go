// Package backend is the only place that talks to the marketplace REST API.
// Every call goes through Gateway.Do, which injects the bearer token,
// decodes failures into domain.BackendError and handles authorization
// failures once, globally.
package backend

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/api/metrics"
	"github.com/microtask/taskhub/internal/core/domain"
	"github.com/microtask/taskhub/internal/core/ports"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultLoginRoute = "/login"
)

// Config captures the settings for reaching the REST backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	LoginRoute string
	Debug      bool
}

// Gateway dispatches backend requests. It never retries: a failed mutation
// is re-triggered by the user.
type Gateway struct {
	client     *resty.Client
	loginRoute string
	log        zerolog.Logger

	mu     sync.RWMutex
	source ports.SessionSource
	nav    ports.Navigator
}

// NewGateway builds a Gateway. Bind must be called before authenticated
// requests are made.
func NewGateway(cfg Config, log zerolog.Logger) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	loginRoute := cfg.LoginRoute
	if loginRoute == "" {
		loginRoute = defaultLoginRoute
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetDebug(cfg.Debug)

	return &Gateway{
		client:     client,
		loginRoute: loginRoute,
		log:        log.With().Str("component", "gateway").Logger(),
	}
}

// Bind attaches the session source that supplies tokens and the navigator
// used for forced re-authentication.
func (g *Gateway) Bind(source ports.SessionSource, nav ports.Navigator) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.source = source
	g.nav = nav
}

type callOptions struct {
	bearer   string
	explicit bool
	query    map[string]string
}

// CallOption tweaks a single request.
type CallOption func(*callOptions)

// WithBearer sends token instead of the session's active token.
func WithBearer(token string) CallOption {
	return func(o *callOptions) {
		o.bearer = token
		o.explicit = true
	}
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) CallOption {
	return func(o *callOptions) {
		if o.query == nil {
			o.query = make(map[string]string)
		}
		o.query[key] = value
	}
}

// errorEnvelope is the backend's error body.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *errorEnvelope) text() string {
	if e == nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// Do performs one request. body and out may be nil. On failure the error is
// always a *domain.BackendError.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any, opts ...CallOption) error {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	g.mu.RLock()
	source, nav := g.source, g.nav
	g.mu.RUnlock()

	token := o.bearer
	if !o.explicit && source != nil {
		token = source.Token()
	}

	req := g.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetError(&errorEnvelope{})
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	if len(o.query) > 0 {
		req.SetQueryParams(o.query)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)

	if err != nil {
		g.observe(method, domain.KindTransport, elapsed)
		g.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("transport failure")
		return &domain.BackendError{Kind: domain.KindTransport, Err: err}
	}
	if resp.IsSuccess() {
		g.observe(method, "ok", elapsed)
		return nil
	}

	env, _ := resp.Error().(*errorEnvelope)
	berr := classify(resp.StatusCode(), env)
	g.observe(method, berr.Kind, elapsed)

	if berr.Kind == domain.KindUnauthorized && token != "" && source != nil {
		g.handleUnauthorized(source, nav, token, path)
	}
	return berr
}

// handleUnauthorized clears the session and redirects to login at most once
// per token, however many requests fail with it concurrently.
func (g *Gateway) handleUnauthorized(source ports.SessionSource, nav ports.Navigator, token, path string) {
	if !source.InvalidateToken(token) {
		return
	}
	metrics.ForcedReauthTotal.Inc()
	g.log.Warn().Str("path", path).Msg("session rejected by backend, re-authentication required")
	if nav != nil {
		nav.Navigate(g.loginRoute)
	}
}

func (g *Gateway) observe(method string, outcome domain.ErrorKind, elapsed time.Duration) {
	metrics.BackendRequestsTotal.WithLabelValues(method, string(outcome)).Inc()
	metrics.BackendRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Ping checks that the backend answers at all; any HTTP response counts.
func (g *Gateway) Ping(ctx context.Context) error {
	_, err := g.client.R().SetContext(ctx).Execute(http.MethodHead, "/")
	if err != nil {
		return &domain.BackendError{Kind: domain.KindTransport, Err: err}
	}
	return nil
}

// classify maps a failed response onto the closed taxonomy.
func classify(status int, env *errorEnvelope) *domain.BackendError {
	be := &domain.BackendError{Status: status, Message: env.text()}
	if be.Message == "" {
		be.Message = strings.ToLower(http.StatusText(status))
	}

	switch {
	case status == http.StatusUnauthorized:
		be.Kind = domain.KindUnauthorized
	case status == http.StatusNotFound:
		be.Kind = domain.KindNotFound
	case status >= 500:
		be.Kind = domain.KindServer
	default:
		be.Kind = domain.KindValidation
	}

	code := ""
	if env != nil {
		code = strings.ToUpper(env.Code)
	}
	switch {
	case status == http.StatusPaymentRequired || code == "INSUFFICIENT_COINS" || code == "INSUFFICIENT_BALANCE":
		be.Reason = domain.ReasonInsufficientBalance
	case status == http.StatusConflict || code == "ACCOUNT_EXISTS":
		be.Reason = domain.ReasonConflict
	case code == "BELOW_MINIMUM":
		be.Reason = domain.ReasonBelowMinimum
	case code == "DEADLINE_PASSED":
		be.Reason = domain.ReasonDeadline
	}
	return be
}
