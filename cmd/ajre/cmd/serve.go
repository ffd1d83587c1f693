package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ggerhardt/ajre-rules-engine/internal/core/api"
	"github.com/ggerhardt/ajre-rules-engine/internal/core/db"
	"github.com/ggerhardt/ajre-rules-engine/internal/core/server"
	"github.com/ggerhardt/ajre-rules-engine/internal/ruleset"
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start gRPC evaluation service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().Duration("request-timeout", 30*time.Second, "per-request evaluation timeout")
	serveCmd.Flags().Int("max-batch-size", 1000, "max rules per request")
	serveCmd.Flags().Int("max-document-bytes", 1<<20, "max encoded request size")
	serveCmd.Flags().Int("context-limit", types.DefaultContextLimit, "default max contexts generated per rule")
	serveCmd.Flags().Duration("time-limit", types.DefaultTimeLimitSeconds*time.Second, "default context generation time limit")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	loader, err := ruleset.NewLoader()
	if err != nil {
		return err
	}

	// History is optional for the service
	var recorder api.Recorder
	if cfg.Database.URL != "" {
		database, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		r, err := db.NewRecorder(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}
		recorder = r
	}

	service, err := api.NewService(cfg, loader, recorder, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting ajre evaluation service",
		slog.String("version", Version),
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.Bool("history", recorder != nil),
	)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info("shutting down gracefully")
		return grpcServer.Shutdown(ctx)
	}
}
