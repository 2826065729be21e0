// Package cli holds the taskhub commands.
package cli

import (
	"context"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/microtask/taskhub/internal/pkg/config"
	"github.com/microtask/taskhub/pkg/logger"
)

// options is shared by every subcommand once the root has run.
type options struct {
	cfg      *config.Config
	lookuper envconfig.Lookuper
	pretty   bool
}

// NewRootCmd builds the command tree. lookuper is where configuration is
// read from; nil means the process environment.
func NewRootCmd(lookuper envconfig.Lookuper) *cobra.Command {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	opts := &options{lookuper: lookuper}

	root := &cobra.Command{
		Use:   "taskhub",
		Short: "Client for the micro-task marketplace",
		Long: `taskhub keeps a marketplace session on this machine and serves the
role-gated dashboards as JSON views on a local console.

Configuration comes from the environment (BACKEND_URL, CREDENTIAL_STORE, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWith(cmd.Context(), opts.lookuper)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			logger.Init(logger.Options{
				Level:   cfg.LogLevel,
				Pretty:  opts.pretty || !cfg.IsProduction(),
				Output:  cmd.ErrOrStderr(),
				Service: "taskhub",
			})
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Force human-readable logs")

	root.AddCommand(
		newServeCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newBalanceCmd(opts),
	)
	return root
}

// ExecuteContext runs the command tree against the process environment.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd(nil).ExecuteContext(ctx)
}
