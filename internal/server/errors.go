package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/together/internal/domain"
	appmiddleware "github.com/nfrund/together/internal/middleware"
)

// statusFor maps domain errors to HTTP statuses. Zero means unmapped.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTopic), errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotSubscribed), errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound
	}
	return 0
}

// setupErrorHandling installs an error handler that answers with a JSON
// message. Errors that are neither echo.HTTPErrors nor known domain errors
// are logged with a stack trace and answered with 500.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		case statusFor(err) != 0:
			code = statusFor(err)
			message = err.Error()
		default:
			appmiddleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		}

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(code)
		} else {
			respErr = c.JSON(code, map[string]string{"message": message})
		}
		if respErr != nil {
			slog.Error("failed to write error response", "error", respErr)
		}
	}
}
