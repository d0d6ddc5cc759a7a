package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// gooseUpContext is a seam for tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func configureGoose() error {
	goose.SetBaseFS(migrationsFS)
	return goose.SetDialect("postgres")
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("postgres: db is nil")
	}
	if err := configureGoose(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "set dialect").Wrap(err)
	}
	if err := gooseUpContext(ctx, db, migrationsDir); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

// SchemaVersion reports the latest applied migration.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := configureGoose(); err != nil {
		return 0, oops.Code("MIGRATION_FAILED").With("operation", "set dialect").Wrap(err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
	}
	return version, nil
}
