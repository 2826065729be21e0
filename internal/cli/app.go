package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/microtask/taskhub/internal/api/handler"
	"github.com/microtask/taskhub/internal/core/ports"
	"github.com/microtask/taskhub/internal/core/service"
	"github.com/microtask/taskhub/internal/infrastructure/backend"
	"github.com/microtask/taskhub/internal/infrastructure/credstore"
	mongodb "github.com/microtask/taskhub/internal/infrastructure/db/mongo"
	redisdb "github.com/microtask/taskhub/internal/infrastructure/db/redis"
	"github.com/microtask/taskhub/internal/infrastructure/identity"
	"github.com/microtask/taskhub/internal/infrastructure/queue"
	"github.com/microtask/taskhub/internal/pkg/config"
	"github.com/microtask/taskhub/pkg/logger"
)

// credentialDriver is a credential store that can also report its health.
type credentialDriver interface {
	ports.CredentialStore
	Check(ctx context.Context) error
}

// app is the wired client: one gateway, one session store, the services on
// top of it and the notification poller.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	gateway *backend.Gateway
	creds   credentialDriver
	store   *service.SessionStore
	router  *service.RoleRouter
	auth    *service.AuthFlow
	wallet  *service.WalletService
	market  *service.MarketplaceService
	poller  *queue.Poller
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, nav ports.Navigator) (*app, error) {
	log := logger.Get()

	creds, closer, err := openCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gw := backend.NewGateway(backend.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Debug:   strings.EqualFold(cfg.LogLevel, "trace"),
	}, logger.Component("gateway"))
	authAPI := backend.NewAuthAPI(gw)
	store := service.NewSessionStore(creds, authAPI, log)
	gw.Bind(store, nav)

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
	economy := cfg.DomainEconomy()
	router := service.NewRoleRouter()
	market := service.NewMarketplaceService(store, b, log)

	a := &app{
		cfg:     cfg,
		log:     log,
		gateway: gw,
		creds:   creds,
		store:   store,
		router:  router,
		auth:    service.NewAuthFlow(b.Auth, b.Users, identity.NewProvider(cfg.IdentityRevokeURL, cfg.Backend.Timeout, log), store, router, economy, log),
		wallet:  service.NewWalletService(store, router, b.Tasks, b.Submissions, b.Withdrawals, b.Payments, economy, log),
		market:  market,
		poller:  queue.NewPoller(cfg.Notification.PollInterval, market, store, log),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

// checks are the readiness probes of the console.
func (a *app) checks() map[string]handler.Check {
	return map[string]handler.Check{
		"backend":     a.gateway.Ping,
		"credentials": a.creds.Check,
	}
}

func (a *app) Close(ctx context.Context) {
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}

func openCredentials(ctx context.Context, cfg *config.Config) (credentialDriver, func(context.Context) error, error) {
	profile := cfg.Credentials.Profile
	switch strings.ToLower(cfg.Credentials.Store) {
	case config.StoreRedis:
		store, err := redisdb.Open(ctx, redisdb.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB, Profile: profile})
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { return store.Close() }, nil
	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		return mongodb.NewCredentialStore(db, profile), client.Disconnect, nil
	case config.StoreFile:
		return credstore.NewFileStore(cfg.Credentials.Path, cfg.Credentials.Key), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown credential store %q", cfg.Credentials.Store)
}

// terminalNavigator tells a CLI user to log in again when the backend
// rejected the stored session.
type terminalNavigator struct {
	w io.Writer
}

func (n terminalNavigator) Navigate(route string) {
	if route == service.RouteLogin {
		fmt.Fprintln(n.w, "session expired, run `taskhub login` again")
	}
}
