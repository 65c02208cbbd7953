package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the mood tracker CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moodtracker",
		Short: "Mood tracker - a mood journaling service",
		Long: `Mood tracker is a mood journaling service with email-verified
accounts, token-based sessions, and a PostgreSQL-backed journal.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
