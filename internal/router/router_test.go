package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(health func(context.Context) map[string]string) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return SetupRouter(&Config{Health: health, RequestsPerMinute: 100}, logger)
}

func TestSetupRouter_Ping(t *testing.T) {
	rec := httptest.NewRecorder()
	setupRouterTest(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestSetupRouter_Health(t *testing.T) {
	t.Run("disabled providers are healthy", func(t *testing.T) {
		h := setupRouterTest(func(context.Context) map[string]string {
			return map[string]string{"database": "ok", "cache": "ok", "places": "disabled"}
		})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing dependency", func(t *testing.T) {
		h := setupRouterTest(func(context.Context) map[string]string {
			return map[string]string{"database": "connection refused", "cache": "ok"}
		})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body struct {
			Dependencies map[string]string `json:"dependencies"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "connection refused", body.Dependencies["database"])
	})
}

func TestSetupRouter_PlacesDisabled(t *testing.T) {
	h := setupRouterTest(nil)
	for _, path := range []string{"/api/v1/geocode?address=4000", "/api/v1/nearby-places?lat=1&lng=2"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}
