package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Response is the JSON error body returned to clients.
type Response struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data,omitempty"`
}

func statusFor(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindLookup:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// EchoHandler returns an echo.HTTPErrorHandler that maps taxonomy errors to
// status codes. Entity snapshots are included only outside production, so a
// misbehaving integration can be debugged locally without leaking internals
// from a deployed instance.
func EchoHandler(logger zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := Response{
			Message:    "internal server error",
			StatusCode: http.StatusInternalServerError,
		}

		var appErr *Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			resp.StatusCode = statusFor(appErr.Kind)
			resp.Message = appErr.Message
			if !production {
				resp.Data = appErr.Data
			}
		case errors.As(err, &httpErr):
			resp.StatusCode = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				resp.Message = m
			}
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.StatusCode)
			return
		}
		_ = c.JSON(resp.StatusCode, resp)
	}
}
