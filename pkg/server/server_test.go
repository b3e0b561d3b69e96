package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Ramsey-B/magnolia/config"
	"github.com/Ramsey-B/magnolia/pkg/routes/health"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

func testServer() (*Server, *health.Checker) {
	checker := health.NewChecker(nil, nil, "test")
	cfg := &config.Config{AppName: "magnolia-importer", Port: 0}
	return New(cfg, checker, testLogger()), checker
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServer(t *testing.T) {
	t.Run("should serve liveness", func(t *testing.T) {
		s, _ := testServer()
		rec := get(s, "/api/v1/health/live")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alive")
	})

	t.Run("should report not ready until startup completes", func(t *testing.T) {
		s, checker := testServer()

		rec := get(s, "/api/v1/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		checker.SetReady(true)
		rec = get(s, "/api/v1/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should report unhealthy without a database", func(t *testing.T) {
		s, _ := testServer()
		rec := get(s, "/api/v1/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "database not configured")
	})

	t.Run("should expose prometheus metrics", func(t *testing.T) {
		s, _ := testServer()
		rec := get(s, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Body.String())
	})
}
