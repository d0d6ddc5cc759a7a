package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Virag-Koradiya/unlisted-stocks/config"
	"github.com/Virag-Koradiya/unlisted-stocks/logging"
)

const serviceName = "unlisted-stocks"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the unlisted-stocks CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlisted-stocks",
		Short: "Unlisted stocks catalog API",
		Long: `Serves the unlisted stocks catalog: public listing, cookie-based
admin sessions, and session-gated catalog management.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig resolves the configuration and installs the default logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.WithConfigFile(configFile))
	if err != nil {
		return config.Config{}, nil, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.SetDefault(serviceName, version, cfg.Log.Format, level)
	return cfg, logger, nil
}
