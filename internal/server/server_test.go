package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/solarb/internal/catalog"
	"github.com/alanyoungcy/solarb/internal/metrics"
	"github.com/alanyoungcy/solarb/internal/server/handler"
)

func TestRoutesAndAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.New(catalog.Default(), nil)
	s := NewServer(Config{Port: 0, APIKey: "k", RateWindow: time.Minute}, Handlers{
		Health:  handler.NewHealthHandler(),
		Catalog: handler.NewCatalogHandler(cat),
		Metrics: metrics.New().Handler(),
	}, nil, nil, logger)

	do := func(method, path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/catalog", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/catalog", "k").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/opportunities", "k").Code, "nil handler leaves route unregistered")
	assert.Equal(t, http.StatusMethodNotAllowed, do(http.MethodPost, "/api/catalog", "k").Code)
	assert.NotEmpty(t, do(http.MethodGet, "/api/health", "").Header().Get("X-Request-ID"))
}
