package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"seostrategy-go/pkg/authapi"
	"seostrategy-go/pkg/session"
)

type messageView struct {
	Message string `json:"message"`
}

func (a *App) message(msg string) error {
	return a.render(messageView{Message: msg}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}

func newLoginCommand(a *App) *cobra.Command {
	var identifier, password string
	cmd := &cobra.Command{
		Use:   "login [email|username]",
		Short: "Sign in and store the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				identifier = args[0]
			}
			id, err := a.readLine("Email or username: ", identifier)
			if err != nil {
				return err
			}
			pw, err := a.readLine("Password: ", password)
			if err != nil {
				return err
			}
			if _, err := a.auth.Login(cmd.Context(), id, pw); err != nil {
				return err
			}
			return a.message("Logged in as " + strings.TrimSpace(id) + ".")
		},
	}
	cmd.Flags().StringVarP(&identifier, "user", "u", "", "Email or username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			return a.message("Logged out.")
		},
	}
}

func newRegisterCommand(a *App) *cobra.Command {
	var req authapi.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (does not sign in)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Username, err = a.readLine("Username: ", req.Username); err != nil {
				return err
			}
			if req.Email, err = a.readLine("Email: ", req.Email); err != nil {
				return err
			}
			if req.Password, err = a.readLine("Password: ", req.Password); err != nil {
				return err
			}
			if err := a.auth.Register(cmd.Context(), req); err != nil {
				return err
			}
			return a.message("Account created. Check your email to verify it, then run `seostrategy login`.")
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Username, "username", "", "Username")
	f.StringVar(&req.Email, "email", "", "Email address")
	f.StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	f.StringVar(&req.FirstName, "first-name", "", "First name")
	f.StringVar(&req.LastName, "last-name", "", "Last name")
	f.StringVar(&req.Company, "company", "", "Company")
	return cmd
}

func newForgotPasswordCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.auth.RequestPasswordReset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.message(msg)
		},
	}
}

func newResetPasswordCommand(a *App) *cobra.Command {
	var token, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.readLine("Reset token: ", token)
			if err != nil {
				return err
			}
			pw, err := a.readLine("New password: ", password)
			if err != nil {
				return err
			}
			if err := a.auth.ResetPassword(cmd.Context(), strings.TrimSpace(t), pw); err != nil {
				return err
			}
			return a.message("Password reset. You can now log in with the new password.")
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Reset token from the email")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when omitted)")
	return cmd
}

func newVerifyEmailCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.VerifyEmail(cmd.Context(), strings.TrimSpace(args[0])); err != nil {
				return err
			}
			return a.message("Email verified.")
		},
	}
}

type statusView struct {
	State          session.State `json:"state"`
	Subject        string        `json:"subject,omitempty"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
	Expired        bool          `json:"expired"`
	BaseURL        string        `json:"base_url"`
	SessionBackend string        `json:"session_backend"`
}

func newStatusCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := statusView{
				State:          a.auth.State(ctx),
				BaseURL:        a.api.BaseURL(),
				SessionBackend: a.cfg.Session.Backend,
			}
			if a.Store != nil {
				view.SessionBackend = "injected"
			}
			if token, ok := a.store.AccessToken(ctx); ok {
				if info, ok := session.Inspect(token); ok {
					view.Subject = info.Subject
					if !info.ExpiresAt.IsZero() {
						exp := info.ExpiresAt.UTC()
						view.ExpiresAt = &exp
					}
					view.Expired = info.Expired(time.Now())
				}
			}
			return a.render(view, func(w io.Writer) error {
				fmt.Fprintf(w, "State:    %s\n", view.State)
				if view.Subject != "" {
					fmt.Fprintf(w, "Subject:  %s\n", view.Subject)
				}
				if view.ExpiresAt != nil {
					note := ""
					if view.Expired {
						note = " (expired, log in again)"
					}
					fmt.Fprintf(w, "Expires:  %s%s\n", view.ExpiresAt.Format(time.RFC3339), note)
				}
				fmt.Fprintf(w, "Backend:  %s\n", view.BaseURL)
				_, err := fmt.Fprintf(w, "Sessions: %s\n", view.SessionBackend)
				return err
			})
		},
	}
}
