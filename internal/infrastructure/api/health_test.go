package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/joacominatel/pulsefeed/internal/application"
	"github.com/joacominatel/pulsefeed/internal/domain"
)

func TestReadyHandler(t *testing.T) {
	down := stubChecker{err: errors.New("connection refused")}

	tests := []struct {
		name       string
		checks     ReadinessChecks
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "all up",
			checks:     ReadinessChecks{Required: map[string]HealthChecker{"database": stubChecker{}}},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "up"},
		},
		{
			name:       "required down",
			checks:     ReadinessChecks{Required: map[string]HealthChecker{"database": down}},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "down"},
		},
		{
			name: "optional down is degraded",
			checks: ReadinessChecks{
				Required: map[string]HealthChecker{"database": stubChecker{}},
				Optional: map[string]HealthChecker{"redis": down},
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "up", "redis": "degraded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ready", nil), rec)

			if err := readyHandler(tt.checks)(c); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			resp := decode[HealthResponse](t, rec)
			for k, v := range tt.wantChecks {
				if resp.Checks[k] != v {
					t.Errorf("check %s = %q, want %q", k, resp.Checks[k], v)
				}
			}
		})
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown strategy", fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, "x"), http.StatusNotFound},
		{"not found", fmt.Errorf("post p1: %w", domain.ErrNotFound), http.StatusNotFound},
		{"invalid input", fmt.Errorf("%w: bad id", domain.ErrInvalidInput), http.StatusBadRequest},
		{"backlog", application.ErrIngestionBacklog, http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("fetching candidates: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var he *echo.HTTPError
			if !errors.As(mapDomainError(tt.err), &he) {
				t.Fatal("expected *echo.HTTPError")
			}
			if he.Code != tt.want {
				t.Errorf("code = %d, want %d", he.Code, tt.want)
			}
		})
	}
}
