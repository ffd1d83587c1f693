package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ggerhardt/ajre-rules-engine/internal/core/config"
	"github.com/ggerhardt/ajre-rules-engine/internal/core/db"
	"github.com/ggerhardt/ajre-rules-engine/internal/log"
)

const Version = "0.1.0"

var (
	configFile string

	// Set by PersistentPreRunE before any subcommand runs.
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "ajre",
	Short:        "Array-aware JSON rules engine",
	Long:         `ajre evaluates declarative rules against JSON documents, expanding rules that traverse arrays into one evaluation per combination of array elements.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.LoadConfig(configFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		handler, err := log.NewHandler(cmd.ErrOrStderr(), log.Options{Level: c.Log.Level, Format: c.Log.Format})
		if err != nil {
			return err
		}

		cfg = c
		logger = slog.New(handler)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().String("db-url", "", "history database URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (json, logfmt, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// openHistory opens the configured history database and checks that every
// migration has been applied.
func openHistory(ctx context.Context) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("--db-url required")
	}

	database, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, fmt.Errorf("migration %s not applied - run 'ajre migrate' first", s.ID)
		}
	}

	return database, nil
}
