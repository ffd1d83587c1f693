package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ggerhardt/ajre-rules-engine/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending history database migrations",
	RunE:  runMigrate,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	if cfg.Database.URL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	ran, err := db.MigrateUp(ctx, database)
	for _, id := range ran {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", id)
	}
	if err != nil {
		return err
	}
	if len(ran) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
	}
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	if cfg.Database.URL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return err
	}

	for _, s := range statuses {
		state := "pending"
		if s.Applied && s.AppliedAt != nil {
			state = "applied " + humanize.Time(*s.AppliedAt)
		} else if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", s.ID, state)
	}
	return nil
}
