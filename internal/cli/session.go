package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microtask/taskhub/internal/core/domain"
)

// withApp wires the client for a one-shot command and restores the stored
// session before fn runs.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app, state domain.SessionState) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, opts.cfg, terminalNavigator{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a, a.store.Restore(ctx))
}

func newLoginCmd(opts *options) *cobra.Command {
	var email, password, idToken string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session on this machine",
		Long: `Log in with email and password, or with an identity provider token.

The password is read from --password, or from the first line of stdin when
the flag is omitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if idToken == "" && email == "" {
				return errors.New("either --email or --id-token is required")
			}
			if idToken == "" && password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app, _ domain.SessionState) error {
				out := cmd.OutOrStdout()
				if idToken != "" {
					res, err := a.auth.LoginWithExternalIdentity(ctx, idToken)
					if err != nil {
						return err
					}
					if res.Session.PendingRoleSelection {
						fmt.Fprintln(out, "new account: pick a role on the console at /select-role")
						return nil
					}
					fmt.Fprintf(out, "logged in as %s (%s)\n", res.Session.DisplayName, res.Session.Role)
					return nil
				}

				res, ok, err := a.auth.Login(ctx, email, password)
				if err != nil {
					return err
				}
				if !ok {
					return domain.ErrInvalidCredentials
				}
				fmt.Fprintf(out, "logged in as %s (%s)\n", res.Session.DisplayName, res.Session.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&idToken, "id-token", "", "Identity provider token")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, state domain.SessionState) error {
				if err := a.auth.Logout(ctx); err != nil {
					return fmt.Errorf("logout: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, state domain.SessionState) error {
				out := cmd.OutOrStdout()
				sess := a.store.Current()
				if state != domain.SessionAuthenticated || sess == nil {
					fmt.Fprintln(out, "not logged in")
					return nil
				}
				fmt.Fprintf(out, "%s <%s>\nrole: %s\ncoins: %d\n", sess.DisplayName, sess.Email, sess.Role, sess.CoinBalance)
				if sess.PendingRoleSelection {
					fmt.Fprintln(out, "role selection pending")
				}
				return nil
			})
		},
	}
}

func newBalanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the coin balance as the backend reports it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, state domain.SessionState) error {
				if state != domain.SessionAuthenticated {
					return domain.ErrNotAuthenticated
				}
				out := cmd.OutOrStdout()
				sess, err := a.store.Refresh(ctx)
				if err != nil {
					if !domain.IsRetryable(err) {
						return err
					}
					cached := a.store.Current()
					fmt.Fprintf(out, "%d coins ($%s, cached: backend unreachable)\n", cached.CoinBalance, a.wallet.Quote(cached.CoinBalance))
					return nil
				}
				fmt.Fprintf(out, "%d coins ($%s)\n", sess.CoinBalance, a.wallet.Quote(sess.CoinBalance))
				if eco := a.wallet.Economy(); sess.Role == domain.RoleWorker && !eco.CanWithdraw(sess.CoinBalance) {
					fmt.Fprintf(out, "withdrawals open at %d coins\n", eco.MinWithdrawalCoins)
				}
				return nil
			})
		},
	}
}
