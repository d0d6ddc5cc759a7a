package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Virag-Koradiya/unlisted-stocks/logging"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewErrorHandler renders errors as ErrorResponse. Errors that are not
// *echo.HTTPError, and 5xx HTTP errors, are logged and reported with a
// generic message.
func NewErrorHandler(logger *slog.Logger) HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, c Context) {
		if c.Response().Committed {
			return
		}

		code := StatusInternalError
		msg := InternalErrorMessage

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = httpErrorMessage(he)
		}
		if code >= http.StatusInternalServerError {
			cause := err
			if he != nil && he.Internal != nil {
				cause = he.Internal
			}
			logging.LogError(logger, "request failed", cause,
				"method", c.Request().Method,
				"path", c.Path(),
				"status", code,
			)
			msg = InternalErrorMessage
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, ErrorResponse{Success: false, Message: msg})
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprint(m)
	}
}
