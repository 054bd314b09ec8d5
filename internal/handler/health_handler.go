package handler

import (
	"context"
	"net/http"
	"time"

	"directory-service/pkg/logger"
	"directory-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// Ping calls f
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a HealthHandler; db may be nil
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck handles GET /health. With ?check=db the database is pinged.
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	body := echo.Map{
		"status":  "healthy",
		"service": "directory-service",
	}
	if c.QueryParam("check") != "db" || h.db == nil {
		return c.JSON(http.StatusOK, body)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.FromContext(c).Warn("Database health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["database"] = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	body["database"] = "ok"
	return c.JSON(http.StatusOK, body)
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
