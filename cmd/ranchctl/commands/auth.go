package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/ranchkit/fetch"
	"github.com/kbukum/ranchkit/httpclient"
	"github.com/kbukum/ranchkit/session"
)

// loginEnvelope is the body of a successful POST /api/auth/login.
type loginEnvelope struct {
	Data struct {
		Token string           `json:"token"`
		User  session.Identity `json:"user"`
	} `json:"data"`
}

func newLoginCommand(opts *globalOptions) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Sign in against the API and store the returned token in the local
store. Later commands send it as a bearer token and use it to authenticate
the live connection.

Examples:
  ranchctl login --email jane@example.com --password secret
  ranchctl login --email jane@example.com --password secret --api http://localhost:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			if email == "" || password == "" {
				return rt.print.fail("missing credentials", "Both --email and --password are required.")
			}
			if err := rt.useAPI(); err != nil {
				return err
			}
			return rt.run(cmd.Context(), func(ctx context.Context) error {
				return rt.login(ctx, email, password, name)
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the email user part)")
	return cmd
}

func (rt *runtime) login(ctx context.Context, email, password, name string) error {
	adapter := rt.api.Adapter()
	exec, err := fetch.New[loginEnvelope](fetch.Config{URL: "/api/auth/login"},
		fetch.WithAdapter[loginEnvelope](adapter),
		fetch.WithMetrics[loginEnvelope](rt.metrics))
	if err != nil {
		return err
	}

	rt.print.step("Signing in to %s", rt.cfg.API.BaseURL)
	res := exec.Post(ctx, map[string]string{"email": email, "password": password, "name": name})
	if res.Err != nil {
		if httpclient.IsAuth(res.Err) || httpclient.StatusCodeOf(res.Err) == 400 {
			return rt.print.fail("login rejected", res.Err.Error())
		}
		return rt.print.fail("login failed", res.Err.Error(),
			"Check that the API is reachable:\n  ranchctl simulate")
	}

	id, err := rt.session.Login(ctx, res.Data.Data.Token)
	if err != nil {
		return rt.print.fail("token rejected", err.Error())
	}
	rt.print.success("Signed in as %s (%s)", displayName(id), id.Email)
	if len(id.RanchIDs) > 0 {
		rt.print.info("  ranches: %s", strings.Join(id.RanchIDs, ", "))
	}
	return nil
}

func newLogoutCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			return rt.run(cmd.Context(), func(ctx context.Context) error {
				if err := rt.session.Logout(ctx); err != nil {
					return rt.print.fail("logout failed", err.Error())
				}
				rt.print.success("Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			return rt.run(cmd.Context(), func(ctx context.Context) error {
				id, err := rt.requireSession(ctx)
				if err != nil {
					return err
				}
				rt.print.info("%s <%s>", displayName(id), id.Email)
				rt.print.info("  id:      %s", id.UserID)
				rt.print.info("  role:    %s", id.Role)
				rt.print.info("  ranches: %s", strings.Join(id.RanchIDs, ", "))
				if !id.ExpiresAt.IsZero() {
					rt.print.info("  expires: %s", id.ExpiresAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func displayName(id session.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	return id.UserID
}
