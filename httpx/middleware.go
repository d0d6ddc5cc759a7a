package httpx

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
)

// AuthMiddleware admits requests that pass the gate and stores the
// principal in the request context.
func AuthMiddleware(gate *auth.Gate) MiddlewareFunc {
	if gate == nil {
		return func(next HandlerFunc) HandlerFunc {
			return func(c Context) error {
				return HTTPError(StatusUnauthorized, auth.RejectionMessage(auth.ErrNoCredentials))
			}
		}
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			principal, err := gate.Authorize(c.Request())
			if err != nil {
				return echo.NewHTTPError(StatusUnauthorized, auth.RejectionMessage(err)).SetInternal(err)
			}
			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithPrincipal(req.Context(), principal)))
			return next(c)
		}
	}
}

// RequestLoggerMiddleware logs one line per request. Errors are rendered by
// the server error handler before the line is written so the status is final.
func RequestLoggerMiddleware(logger *slog.Logger) MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"route", v.RoutePath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.RequestID != "" {
				attrs = append(attrs, "request_id", v.RequestID)
			}
			if principal, ok := auth.PrincipalFromContext(c.Request().Context()); ok {
				attrs = append(attrs, "user_id", principal.UserID)
			}
			logger.InfoContext(c.Request().Context(), "http request", attrs...)
			return nil
		},
	})
}
