package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// LoginCmd creates the login command
func LoginCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Email a sign-in link to the given address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.RequestLoginLink(app.Ctx, app.Portal, app.Logger, args[0]); err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Sign-in link sent to %s\n", args[0])
			fmt.Fprintln(app.Out, "Open it, then run setToken with the token from the link.")
			fmt.Fprintln(app.Out)
			return nil
		},
	}
}

// SetTokenCmd creates the setToken command
func SetTokenCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setToken <access_token>",
		Short: "Store the portal token from a sign-in link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refreshToken, _ := cmd.Flags().GetString("refresh-token")
			expiresIn, _ := cmd.Flags().GetDuration("expires-in")

			token, err := services.StoreToken(app.Tokens, app.Env, args[0], refreshToken, expiresIn, app.Clock.Now())
			if err != nil {
				return err
			}
			app.Portal.SetTokenSource(PortalTokenSource(app, token))

			fmt.Fprintln(app.Out, "\n✓ Token stored")
			if !token.Expiry.IsZero() {
				fmt.Fprintf(app.Out, "Expires: %s\n", token.Expiry.Format(time.RFC1123))
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("refresh-token", "", "Refresh token from the sign-in link")
	cmd.Flags().Duration("expires-in", 0, "Access token lifetime, e.g. 1h")
	return cmd
}

// WhoamiCmd creates the whoami command
func WhoamiCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in portal user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := services.CurrentUser(app.Ctx, app.Portal, app.Logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n%s <%s>\n", user.Name, user.Email)
			fmt.Fprintf(app.Out, "Employee ID: %s\n", user.EmployeeID)
			fmt.Fprintf(app.Out, "Role:        %s\n\n", user.Role)
			return nil
		},
	}
}

// LogoutCmd creates the logout command
func LogoutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the portal session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := services.Logout(app.Ctx, app.Portal, app.Tokens, app.Env, app.Logger)
			app.Portal.SetTokenSource(nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(app.Out, "\n✓ Logged out")
			return nil
		},
	}
}
