package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktask/internal/auth"
	"github.com/teemow/ticktask/internal/format"
	"github.com/teemow/ticktask/internal/logging"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage TickTick authorization",
	}
	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize ticktask in the browser",
		Long: `Open the TickTick authorization page and wait for the redirect on the
configured redirect URI. The tokens are stored encrypted in the ticktask home
directory.`,
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			flow, err := a.requireFlow()
			if err != nil {
				return err
			}
			if !force {
				if _, ok := flow.AccessToken(ctx); ok {
					fmt.Fprintln(a.out, "Already authenticated. Use --force to log in again.")
					return nil
				}
			}
			token, err := flow.Login(ctx)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			a.logger.Debug("login complete", "access_token", logging.SanitizeToken(token))
			fmt.Fprintln(a.out, format.Success("Successfully authenticated with TickTick."))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&force, "force", false, "Log in even if a valid token is stored")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored tokens",
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			logout := a.store.Clear
			if a.flow != nil {
				logout = a.flow.Logout
			}
			if err := logout(); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		}),
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable token is stored",
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			rec, ok := a.store.Load()
			if !ok {
				fmt.Fprintln(a.out, "Not authenticated. Run 'ticktask auth login'.")
				return nil
			}

			age := time.Since(rec.SavedAt).Round(time.Second)
			fmt.Fprintf(a.out, "Token file:    %s\n", a.store.TokenPath())
			fmt.Fprintf(a.out, "Saved at:      %s (%s ago)\n", rec.SavedAt.Local().Format(time.RFC1123), age)
			fmt.Fprintf(a.out, "Refresh token: %t\n", rec.RefreshToken != "")

			switch {
			case age < auth.TokenTTL:
				fmt.Fprintln(a.out, format.Success("Status:        authenticated"))
			case rec.RefreshToken != "":
				fmt.Fprintln(a.out, "Status:        expired, will refresh on next use")
			default:
				fmt.Fprintln(a.out, format.Failure("Status:        expired, run 'ticktask auth login'"))
			}
			return nil
		}),
	}
}
