package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Validator runs before route handlers; return an error to stop the pipeline.
type Validator func(Context) error

type Server struct {
	echo     *Echo
	address  string
	logger   *slog.Logger
	srv      *http.Server
	shutdown time.Duration
}

type RouteRegistrar func(*Echo)

// NewServer builds the echo instance with recovery, request logging, the
// JSON error handler and, when configured, CORS, metrics and a health route.
func NewServer(opts ...ServerOption) *Server {
	cfg := defaultServerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = NewErrorHandler(cfg.Logger)
	}
	if cfg.Middlewares == nil {
		cfg.Middlewares = []MiddlewareFunc{RecoverMiddleware(), RequestLoggerMiddleware(cfg.Logger)}
	}

	e := NewEcho()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c Context) { cfg.ErrorHandler(err, c) }
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	if cfg.CORS != nil {
		e.Use(CORSMiddleware(cfg.CORS))
	}
	for _, mw := range cfg.Middlewares {
		e.Use(mw)
	}
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
		e.GET("/metrics", WrapHandler(cfg.Metrics.Handler()))
	}
	if len(cfg.Validators) > 0 {
		e.Use(validatorMiddleware(cfg.Validators...))
	}
	if cfg.HealthPath != "" {
		e.GET(cfg.HealthPath, healthHandler(cfg.HealthCheck))
	}

	return &Server{
		echo:     e,
		address:  cfg.Address,
		logger:   cfg.Logger,
		shutdown: cfg.ShutdownTimeout,
	}
}

func (s *Server) RegisterRoutes(reg RouteRegistrar) {
	if reg != nil {
		reg(s.echo)
	}
}

func (s *Server) Echo() *Echo {
	return s.echo
}

func (s *Server) Handler() http.Handler {
	return s.echo.Echo
}

func (s *Server) Address() string {
	return s.address
}

// Start serves until ctx is cancelled, then shuts down gracefully. It
// returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.address,
		Handler:           s.echo.Echo,
		ReadTimeout:       s.echo.Server.ReadTimeout,
		ReadHeaderTimeout: s.echo.Server.ReadTimeout,
		WriteTimeout:      s.echo.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", s.address)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down", "timeout", s.shutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

func healthHandler(check func(*http.Request) error) HandlerFunc {
	return func(c Context) error {
		if check != nil {
			if err := check(c.Request()); err != nil {
				return HTTPErrorWithCause(StatusServiceUnavailable, "Service unavailable", err)
			}
		}
		return c.JSON(StatusOK, healthResponse{Status: "ok"})
	}
}

func validatorMiddleware(v ...Validator) MiddlewareFunc {
	copied := append([]Validator(nil), v...)
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			for _, validator := range copied {
				if validator == nil {
					continue
				}
				if err := validator(c); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}
