package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hbpc002/log-lottery/internal/adapter/metrics"
	"github.com/hbpc002/log-lottery/internal/app"
	"github.com/hbpc002/log-lottery/internal/domain"
	"github.com/hbpc002/log-lottery/internal/platform/config"
	apperrors "github.com/hbpc002/log-lottery/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockSubmissions struct {
	submitFn func(ctx context.Context, name, phone string) (domain.SubmissionEvent, error)
	stats    app.Stats
}

func (m *mockSubmissions) Submit(ctx context.Context, name, phone string) (domain.SubmissionEvent, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, name, phone)
	}
	return domain.NewSubmissionEvent(name, phone), nil
}

func (m *mockSubmissions) Stats() app.Stats {
	return m.stats
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		Host:            "127.0.0.1",
		Port:            "0",
		SubmitRateLimit: 1000,
		SubmitRateBurst: 1000,
	}
}

func newTestServer(t *testing.T, submissions submissionService, opts ...func(*Server)) *Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	srv := &Server{
		echo:              echo.New(),
		config:            testConfig(),
		submissions:       submissions,
		websocketHandler:  http.NotFoundHandler(),
		httpMetrics:       metrics.NewHTTPMetrics(reg),
		submissionMetrics: metrics.NewSubmissionMetrics(reg, func() int { return submissions.Stats().Registered }),
		metricsHandler:    metrics.Handler(reg),
		startTime:         time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withConfig(cfg *config.Config) func(*Server) {
	return func(s *Server) {
		s.config = cfg
	}
}

func withWebsocketHandler(h http.Handler) func(*Server) {
	return func(s *Server) {
		s.websocketHandler = h
	}
}

// do sends a request through the full middleware stack.
func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.RemoteAddr = testRemoteAddr
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apperrors.Response {
	t.Helper()
	var resp apperrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
