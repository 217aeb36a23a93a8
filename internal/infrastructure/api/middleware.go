package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/joacominatel/pulsefeed/internal/infrastructure/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ViewerContextKey is the context key for the authenticated viewer id.
	ViewerContextKey contextKey = "viewer_id"
)

// AuthConfig holds authentication middleware configuration.
type AuthConfig struct {
	// JWTValidator checks the bearer token of every request.
	JWTValidator *auth.JWTValidator

	// Skipper defines a function to skip auth for certain routes.
	Skipper func(c echo.Context) bool
}

// AuthMiddleware requires a valid bearer token and stores its subject as
// the viewer id for downstream handlers.
func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// check if we should skip auth for this route
			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			claims, err := config.JWTValidator.ValidateToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, authErrorMessage(err)).SetInternal(err)
			}

			// store in context for downstream handlers
			c.Set(string(ViewerContextKey), claims.ViewerID())

			return next(c)
		}
	}
}

// authErrorMessage keeps token internals out of responses.
func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing authentication: bearer token required"
	case errors.Is(err, auth.ErrTokenExpired):
		return "token has expired"
	default:
		return "invalid token"
	}
}

// GetViewerID retrieves the authenticated viewer id from context.
// returns empty string if not authenticated.
func GetViewerID(c echo.Context) string {
	if val := c.Get(string(ViewerContextKey)); val != nil {
		if viewerID, ok := val.(string); ok {
			return viewerID
		}
	}
	return ""
}

// PublicRoutesSkipper returns a skipper function that skips auth for public routes.
func PublicRoutesSkipper(publicPaths ...string) func(echo.Context) bool {
	pathSet := make(map[string]bool)
	for _, p := range publicPaths {
		pathSet[p] = true
	}

	return func(c echo.Context) bool {
		return pathSet[c.Path()]
	}
}
