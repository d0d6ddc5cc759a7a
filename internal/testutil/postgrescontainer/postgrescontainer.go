// Package postgrescontainer starts a throwaway PostgreSQL for integration tests.
package postgrescontainer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	image    = "postgres:16-alpine"
	user     = "stocks"
	password = "secret"
	dbName   = "stocks_test"
)

var (
	mu        sync.Mutex
	container *postgres.PostgresContainer
	dsn       string
)

// Setup launches the container once per test binary.
func Setup(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if container != nil {
		return nil
	}

	c, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("start postgres container: %w", err)
	}
	connStr, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(ctx)
		return fmt.Errorf("postgres connection string: %w", err)
	}
	container = c
	dsn = connStr
	return nil
}

// DSN returns the lib/pq connection string of the running container.
func DSN() string {
	mu.Lock()
	defer mu.Unlock()
	return dsn
}

// Teardown stops the container launched by Setup.
func Teardown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if container == nil {
		return nil
	}
	err := container.Terminate(ctx)
	container = nil
	dsn = ""
	return err
}
