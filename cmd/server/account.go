package main

import (
	"github.com/spf13/cobra"
)

// NewAccountCmd creates the account subcommand group.
func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountCreateCmd())
	return cmd
}

func newAccountCreateCmd() *cobra.Command {
	var email, plaintext string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with a bcrypt-hashed password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.auth.Register(cmd.Context(), email, plaintext)
			if err != nil {
				return err
			}
			cmd.Printf("created account %d (%s)\n", account.ID, account.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email address")
	cmd.Flags().StringVar(&plaintext, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
