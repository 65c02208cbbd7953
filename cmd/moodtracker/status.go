package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kayo09/mood-tracker/internal/store"
)

// SchemaStatus holds the migration state reported by the status command.
type SchemaStatus struct {
	Version int    `json:"version"`
	Name    string `json:"name,omitempty"`
	Dirty   bool   `json:"dirty"`
	Pending []uint `json:"pending,omitempty"`
}

type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database schema status",
		Long:  `Show the current migration version, dirty state, and any pending migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	return withMigrator(cmd, func(m *store.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}

		status := SchemaStatus{
			Version: int(version),
			Dirty:   dirty,
		}

		if version > 0 {
			name, err := store.MigrationName(version)
			if err != nil {
				return err
			}
			status.Name = name
		}

		pending, err := m.PendingMigrations()
		if err != nil {
			return err
		}
		status.Pending = pending

		if cfg.jsonOutput {
			data, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal status: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}

		cmd.Println(formatStatusTable(status))
		return nil
	})
}

func formatStatusTable(status SchemaStatus) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
	_, _ = fmt.Fprintln(w, "-----\t-----")

	current := "none"
	if status.Version > 0 {
		current = fmt.Sprintf("%d", status.Version)
		if status.Name != "" {
			current += " (" + status.Name + ")"
		}
	}
	_, _ = fmt.Fprintf(w, "version\t%s\n", current)
	_, _ = fmt.Fprintf(w, "dirty\t%t\n", status.Dirty)

	pending := "none"
	if len(status.Pending) > 0 {
		parts := make([]string, len(status.Pending))
		for i, v := range status.Pending {
			parts[i] = fmt.Sprintf("%d", v)
		}
		pending = strings.Join(parts, ", ")
	}
	_, _ = fmt.Fprintf(w, "pending\t%s\n", pending)

	_ = w.Flush()
	return sb.String()
}
