package commands

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"secure-vault/internal/client"
	"secure-vault/internal/domain"
)

func registerCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if name == "" {
				if name, err = promptLine(in, out, "Full name"); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = promptLine(in, out, "Email"); err != nil {
					return err
				}
			}
			confirm := password
			if password == "" {
				if password, err = promptPassword(in, out); err != nil {
					return err
				}
				if confirm, err = promptSecret(in, out, "Confirm password"); err != nil {
					return err
				}
			}

			session, err := appClient.Register(cmd.Context(), client.RegisterRequest{
				Name:     name,
				Email:    email,
				Password: password,
				Confirm:  confirm,
			})
			if err != nil {
				return err
			}
			printUser(cmd, "Account created. Welcome, %s.", session.User)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters (prompted twice when omitted)")
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if email == "" {
				if email, err = promptLine(in, out, "Email"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword(in, out); err != nil {
					return err
				}
			}

			session, err := appClient.Login(cmd.Context(), client.LoginRequest{Email: email, Password: password})
			if err != nil {
				return err
			}
			printUser(cmd, "Welcome back, %s.", session.User)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appClient.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := appClient.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			printUser(cmd, "Signed in as %s.", *user)
			return nil
		},
	}
}

func printUser(cmd *cobra.Command, greeting string, u domain.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, greeting+"\n", u.Name)
	fmt.Fprintf(out, "  id:      %s\n", u.ID)
	fmt.Fprintf(out, "  email:   %s\n", u.Email)
	fmt.Fprintf(out, "  created: %s\n", u.CreatedAt.Format(domain.TimestampLayout))
}
