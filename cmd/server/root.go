package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Without a subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()
	cmd := &cobra.Command{
		Use:          "go-login-service",
		Short:        "Credential verification and session service",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAccountCmd())

	return cmd
}
