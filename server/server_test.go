package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/echomind/internal/profile"
	"github.com/hrygo/echomind/store"
	"github.com/hrygo/echomind/store/db/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerInMode(t, "dev")
}

func newTestServerInMode(t *testing.T, mode string) *Server {
	t.Helper()
	p := &profile.Profile{Mode: mode, Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "server.db"), Secret: "s", LLMProvider: "openai"}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	server, err := NewServer(context.Background(), p, s)
	require.NoError(t, err)
	return server
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Service ready.\n", rec.Body.String())
}

func TestMetricsEndpointCountsAPIRequests(t *testing.T) {
	server := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/conversations", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `echomind_http_requests_total{code="200",method="GET",route="/api/v1/conversations"} 1`)
}

func TestInternalErrorDetailHiddenInProd(t *testing.T) {
	tests := []struct {
		mode       string
		wantDetail bool
	}{
		{"prod", false},
		{"dev", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			server := newTestServerInMode(t, tt.mode)
			server.echoServer.GET("/boom", func(echo.Context) error {
				return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(errors.New("sql: connection reset"))
			})

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			if tt.wantDetail {
				assert.Contains(t, rec.Body.String(), "sql: connection reset")
			} else {
				assert.NotContains(t, rec.Body.String(), "sql: connection reset")
			}
		})
	}
}
