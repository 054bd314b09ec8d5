package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDKey is the header carrying the request id
const RequestIDKey = "X-Request-ID"

const contextKeyLogger = "logger"

type ctxKey int

const loggerKey ctxKey = iota

// WithLogger returns a copy of the context with the logger included
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the request logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(contextKeyLogger).(*zap.Logger); ok {
		return l
	}
	return FromStdContext(c.Request().Context())
}

// FromStdContext retrieves the logger from a standard context, falling back to the global one
func FromStdContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}

// Set replaces the request logger stored in the Echo context
func Set(c echo.Context, l *zap.Logger) {
	c.Set(contextKeyLogger, l)
	c.SetRequest(c.Request().WithContext(WithLogger(c.Request().Context(), l)))
}
