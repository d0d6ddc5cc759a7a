// Package app assembles the stores, services and HTTP server from a
// resolved configuration.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/Virag-Koradiya/unlisted-stocks/api"
	"github.com/Virag-Koradiya/unlisted-stocks/auth"
	"github.com/Virag-Koradiya/unlisted-stocks/catalog"
	"github.com/Virag-Koradiya/unlisted-stocks/config"
	"github.com/Virag-Koradiya/unlisted-stocks/db/memory"
	"github.com/Virag-Koradiya/unlisted-stocks/db/sql/postgres"
	"github.com/Virag-Koradiya/unlisted-stocks/httpx"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "unlisted_stocks"

type stores struct {
	users  auth.UserRepository
	stocks catalog.Repository
	health func(*http.Request) error
	close  func() error
}

// App is a fully wired server.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	server *httpx.Server
	close  func() error
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	handlers, err := buildHandlers(ctx, cfg, st)
	if err != nil {
		_ = st.close()
		return nil, err
	}

	server := httpx.NewServer(
		httpx.WithAddress(cfg.HTTP.Address),
		httpx.WithTimeouts(cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout),
		httpx.WithServerShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		httpx.WithLogger(logger),
		httpx.WithCORS(httpx.CredentialedCORS(cfg.HTTP.CORSOrigins...)),
		httpx.WithMetrics(httpx.NewMetrics(MetricsNamespace)),
		httpx.WithHealthCheck("/healthz", st.health),
	)
	server.RegisterRoutes(handlers.RegisterRoutes)

	return &App{cfg: cfg, logger: logger, server: server, close: st.close}, nil
}

func buildHandlers(ctx context.Context, cfg config.Config, st stores) (*api.Handlers, error) {
	issuer, err := auth.NewTokenIssuer([]byte(cfg.Auth.Secret))
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	carrier := auth.NewSessionCarrier(cfg.CookiePolicy())

	users, err := auth.NewUserService(ctx, auth.UserServiceConfig{
		Repository: st.users,
		Hasher:     auth.NewBcryptHasher(auth.WithBcryptCost(cfg.Auth.BcryptCost)),
		Tokens:     issuer,
		Sessions:   carrier,
	})
	if err != nil {
		return nil, err
	}
	stocks, err := catalog.NewService(st.stocks)
	if err != nil {
		return nil, err
	}
	gate, err := auth.NewGate(issuer, auth.WithSessionCarrier(carrier))
	if err != nil {
		return nil, err
	}
	return api.New(users, stocks, gate)
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.Database.Migrate,
			postgres.WithDSN(cfg.Database.DSN),
			postgres.WithMaxOpenConns(cfg.Database.MaxOpenConns),
			postgres.WithMaxIdleConns(cfg.Database.MaxIdleConns),
			postgres.WithConnMaxLifetime(cfg.Database.ConnMaxLifetime),
			postgres.WithConnectRetries(cfg.Database.ConnectRetries, 0),
		)
		if err != nil {
			return stores{}, err
		}
		if version, err := postgres.SchemaVersion(ctx, store.DB); err == nil {
			logger.Info("database ready", "driver", cfg.Database.Driver, "schema_version", version)
		}
		return stores{
			users:  store.Users,
			stocks: store.Stocks,
			health: func(r *http.Request) error { return store.DB.PingContext(r.Context()) },
			close:  store.Close,
		}, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		return stores{
			users:  store,
			stocks: store,
			close:  func() error { return nil },
		}, nil
	default:
		return stores{}, oops.Code("CONFIG_INVALID").Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting server",
		"address", a.cfg.HTTP.Address,
		"env", a.cfg.Env,
		"driver", a.cfg.Database.Driver,
	)
	if err := a.server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return oops.Code("SERVER_FAILED").With("address", a.cfg.HTTP.Address).Wrap(err)
	}
	return nil
}

func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
