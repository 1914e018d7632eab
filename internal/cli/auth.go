package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/granme/caprisystem/internal/session"
	"github.com/granme/caprisystem/pkg/types"
)

func newLoginCmd() *cobra.Command {
	var creds types.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.session.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bienvenido, %s\n", displayName(user))
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			if !flags.jsonMode {
				fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
			}
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var reg types.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account",
		Long:  "register creates an account. It does not sign in; run login afterwards.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.session.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Usuario %s registrado. Inicie sesión para continuar.\n", user.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.IDCard, "id-card", "", "identity card number")
	f.StringVar(&reg.Code, "code", "", "user code")
	f.StringVar(&reg.FirstName, "first-name", "", "first name")
	f.StringVar(&reg.LastName, "last-name", "", "last name")
	f.StringVar(&reg.Email, "email", "", "email (required)")
	f.StringVar(&reg.Phone, "phone", "", "phone")
	f.StringVar(&reg.Password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newForgotPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset link by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.ForgotPassword(cmd.Context(), args[0]); err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"sent": true})
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.MsgRecoverySent)
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the signed-in user",
		Args:        cobra.NoArgs,
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := app.session.User()
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), user)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, displayName(user))
			fmt.Fprintln(out, "  correo:", user.Email)
			if user.Role != "" {
				fmt.Fprintln(out, "  rol:   ", user.Role)
			}
			return nil
		},
	}
}

func newProfileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in user's profile",
	}

	var update types.ProfileUpdate
	updateCmd := &cobra.Command{
		Use:         "update",
		Short:       "Update the signed-in user's profile",
		Args:        cobra.NoArgs,
		Annotations: requiresAuth,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, _ := app.session.User()
			// Unset flags keep the stored values.
			f := cmd.Flags()
			if !f.Changed("first-name") {
				update.FirstName = current.FirstName
			}
			if !f.Changed("last-name") {
				update.LastName = current.LastName
			}
			if !f.Changed("phone") {
				update.Phone = current.Phone
			}
			user, err := app.session.UpdateProfile(cmd.Context(), current.ID, update)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Perfil actualizado")
			return nil
		},
	}
	f := updateCmd.Flags()
	f.StringVar(&update.FirstName, "first-name", "", "first name")
	f.StringVar(&update.LastName, "last-name", "", "last name")
	f.StringVar(&update.Email, "email", "", "email")
	f.StringVar(&update.Phone, "phone", "", "phone")
	f.StringVar(&update.Avatar, "avatar", "", "avatar URL")

	profile.AddCommand(updateCmd)
	return profile
}

func displayName(u types.User) string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}
