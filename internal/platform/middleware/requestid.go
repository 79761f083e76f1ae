package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const RequestIDHeader = "X-Request-ID"

// requestIDKey is the echo context key the logger and recovery middleware
// read the id back from.
const requestIDKey = "request_id"

// RequestID assigns each request an id, honoring one supplied by the caller.
// The orchestration platform sends its own delivery id on webhook retries,
// so honoring the inbound header lets retried deliveries be correlated in
// the logs. The id is echoed back in the response header and stored on the
// context for the logger and recovery middleware.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(requestIDKey, rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}
