package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Virag-Koradiya/unlisted-stocks/internal/app"
	"github.com/Virag-Koradiya/unlisted-stocks/logging"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API. With the postgres driver pending migrations are
applied first unless database.migrate is false. SIGINT and SIGTERM trigger a
graceful shutdown.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logging.LogError(logger, "startup failed", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.LogError(logger, "close stores", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		logging.LogError(logger, "server stopped", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
