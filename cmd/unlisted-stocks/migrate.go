package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Virag-Koradiya/unlisted-stocks/config"
	"github.com/Virag-Koradiya/unlisted-stocks/db/sql/postgres"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return oops.Code("CONFIG_INVALID").Errorf("migrate requires database.driver=postgres, got %q", cfg.Database.Driver)
	}

	ctx := commandContext(cmd)

	cmd.Println("Connecting to database...")
	db, err := postgres.Open(ctx,
		postgres.WithDSN(cfg.Database.DSN),
		postgres.WithConnectRetries(cfg.Database.ConnectRetries, 0),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	version, err := postgres.SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	cmd.Printf("Migrations completed successfully (schema version %d)\n", version)
	return nil
}
