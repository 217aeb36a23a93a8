package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joacominatel/pulsefeed/internal/application"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/auth"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/logging"
	"github.com/joacominatel/pulsefeed/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for route registration.
type RouterConfig struct {
	RankFeedUseCase          *application.RankFeedUseCase
	RecordInteractionUseCase *application.RecordInteractionUseCase
	GetTrendingUseCase       *application.GetTrendingUseCase // nil when redis is disabled
	FeedLimits               FeedLimits
	Readiness                ReadinessChecks
	JWTValidator             *auth.JWTValidator
	Logger                   *logging.Logger
	Metrics                  *metrics.Metrics
}

// RegisterRoutes sets up all API routes on the server.
// follows RESTful conventions and groups routes logically.
func RegisterRoutes(e *echo.Echo, config RouterConfig) {
	// prometheus metrics endpoint (no auth, standard scraping path)
	if config.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
			config.Metrics.Registry,
			promhttp.HandlerOpts{
				Registry:          config.Metrics.Registry,
				EnableOpenMetrics: true,
			},
		)))

		// apply metrics middleware to all routes
		e.Use(metrics.Middleware(config.Metrics))
	}

	// health endpoints (no auth required)
	RegisterHealthRoutes(e, config.Readiness)

	// api routes need a viewer, strategy discovery is public
	v1 := e.Group("/api/v1", AuthMiddleware(AuthConfig{
		JWTValidator: config.JWTValidator,
		Skipper:      PublicRoutesSkipper("/api/v1/strategies"),
	}))

	if config.RankFeedUseCase != nil {
		NewFeedHandler(config.RankFeedUseCase, config.FeedLimits).RegisterRoutes(v1)
	}

	if config.RecordInteractionUseCase != nil {
		NewInteractionHandler(config.RecordInteractionUseCase).RegisterRoutes(v1)
	}

	NewTrendingHandler(config.GetTrendingUseCase).RegisterRoutes(v1)

	config.Logger.Info("api routes registered",
		"version", "v1",
		"health_endpoints", []string{"/health", "/ready"},
		"metrics_enabled", config.Metrics != nil,
		"trending_enabled", config.GetTrendingUseCase != nil,
		"api_prefix", "/api/v1",
	)
}
