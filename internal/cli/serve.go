package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/microtask/taskhub/internal/api"
	"github.com/microtask/taskhub/internal/api/middleware"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		port            string
		shutdownTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboards on a local console",
		Long: `Serve the role-gated dashboards as JSON views.

The stored session is restored in the background; until that finishes every
gated route answers 202 {"status":"loading"}. Health probes live on /health
and /health/ready, metrics on /metrics and the API docs on /swagger/.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = opts.cfg.Port
			}
			return runServe(cmd.Context(), opts, ":"+port, shutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default $PORT)")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Time allowed for in-flight requests on shutdown")
	return cmd
}

func runServe(ctx context.Context, opts *options, addr string, shutdownTimeout time.Duration) error {
	pending := middleware.NewPendingRedirect()
	a, err := newApp(ctx, opts.cfg, pending)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	go func() {
		state := a.store.Restore(ctx)
		a.log.Info().Str("state", state.String()).Msg("session restored")
	}()

	a.poller.Start(ctx)
	defer a.poller.Stop()

	e := api.NewRouter(api.Deps{
		Sessions: a.store,
		Router:   a.router,
		Auth:     a.auth,
		Wallet:   a.wallet,
		Market:   a.market,
		Unread:   a.poller,
		Economy:  a.wallet.Economy(),
		Pending:  pending,
		Checks:   a.checks(),
		Log:      a.log,
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("console listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down console")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
