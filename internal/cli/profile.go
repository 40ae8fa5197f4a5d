package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"seostrategy-go/pkg/authapi"
)

func newProfileCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the signed-in account",
	}
	cmd.AddCommand(newProfileShowCommand(a), newProfileUpdateCommand(a))
	return cmd
}

func newProfileShowCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.auth.GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderProfile(profile)
		},
	}
}

func newProfileUpdateCommand(a *App) *cobra.Command {
	var username, email, firstName, lastName, company string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; only the flags given are sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch authapi.ProfilePatch
			f := cmd.Flags()
			if f.Changed("username") {
				patch.Username = authapi.StrPtr(username)
			}
			if f.Changed("email") {
				patch.Email = authapi.StrPtr(email)
			}
			if f.Changed("first-name") {
				patch.FirstName = authapi.StrPtr(firstName)
			}
			if f.Changed("last-name") {
				patch.LastName = authapi.StrPtr(lastName)
			}
			if f.Changed("company") {
				patch.Company = authapi.StrPtr(company)
			}
			profile, err := a.auth.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return a.renderProfile(profile)
		},
	}
	f := cmd.Flags()
	f.StringVar(&username, "username", "", "New username")
	f.StringVar(&email, "email", "", "New email address")
	f.StringVar(&firstName, "first-name", "", "First name")
	f.StringVar(&lastName, "last-name", "", "Last name")
	f.StringVar(&company, "company", "", "Company")
	return cmd
}

func newChangePasswordCommand(a *App) *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := a.readLine("Current password: ", current)
			if err != nil {
				return err
			}
			nw, err := a.readLine("New password: ", next)
			if err != nil {
				return err
			}
			if err := a.auth.ChangePassword(cmd.Context(), cur, nw); err != nil {
				return err
			}
			return a.message("Password changed.")
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "Current password (prompted when omitted)")
	cmd.Flags().StringVar(&next, "new", "", "New password (prompted when omitted)")
	return cmd
}

func (a *App) renderProfile(p *authapi.UserProfile) error {
	return a.render(p, func(w io.Writer) error {
		fmt.Fprintf(w, "ID:        %d\n", p.ID)
		fmt.Fprintf(w, "Username:  %s\n", p.Username)
		fmt.Fprintf(w, "Email:     %s\n", p.Email)
		fmt.Fprintf(w, "Name:      %s %s\n", orDash(p.FirstName), orDash(p.LastName))
		fmt.Fprintf(w, "Company:   %s\n", orDash(p.Company))
		verified := "unknown"
		if p.IsVerified != nil {
			verified = fmt.Sprint(*p.IsVerified)
		}
		_, err := fmt.Fprintf(w, "Verified:  %s\n", verified)
		return err
	})
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
