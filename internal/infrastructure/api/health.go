package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const serviceName = "pulsefeed"

// readyTimeout bounds the dependency checks of one readiness probe.
const readyTimeout = 2 * time.Second

// HealthChecker is a dependency the readiness probe pings.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ReadinessChecks are the dependencies behind /ready.
// required checks fail the probe, optional ones only report.
type ReadinessChecks struct {
	Required map[string]HealthChecker
	Optional map[string]HealthChecker
}

// RegisterHealthRoutes registers health check endpoints.
// these are public and don't require authentication.
func RegisterHealthRoutes(e *echo.Echo, checks ReadinessChecks) {
	e.GET("/health", healthHandler)
	e.GET("/ready", readyHandler(checks))
}

// healthHandler returns the basic health status.
// used for liveness probes.
func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
	})
}

// readyHandler reports whether the service can take traffic.
// used for readiness probes.
func readyHandler(checks ReadinessChecks) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
		defer cancel()

		results := make(map[string]string, len(checks.Required)+len(checks.Optional))
		ready := true

		for name, checker := range checks.Required {
			if err := checker.HealthCheck(ctx); err != nil {
				results[name] = "down"
				ready = false
				continue
			}
			results[name] = "up"
		}
		for name, checker := range checks.Optional {
			if err := checker.HealthCheck(ctx); err != nil {
				results[name] = "degraded"
				continue
			}
			results[name] = "up"
		}

		if !ready {
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Service: serviceName,
				Checks:  results,
			})
		}
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ready",
			Service: serviceName,
			Checks:  results,
		})
	}
}
