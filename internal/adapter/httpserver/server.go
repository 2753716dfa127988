package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hbpc002/log-lottery/internal/adapter/metrics"
	"github.com/hbpc002/log-lottery/internal/app"
	"github.com/hbpc002/log-lottery/internal/domain"
	"github.com/hbpc002/log-lottery/internal/platform/config"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type submissionService interface {
	Submit(ctx context.Context, name, phone string) (domain.SubmissionEvent, error)
	Stats() app.Stats
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	submissions      submissionService
	websocketHandler http.Handler

	httpMetrics       *metrics.HTTPMetrics
	submissionMetrics *metrics.SubmissionMetrics
	metricsHandler    http.Handler

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, submissions submissionService, websocketHandler http.Handler, reg *prometheus.Registry, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:              e,
		config:            cfg,
		submissions:       submissions,
		websocketHandler:  websocketHandler,
		httpMetrics:       metrics.NewHTTPMetrics(reg),
		submissionMetrics: metrics.NewSubmissionMetrics(reg, func() int { return submissions.Stats().Registered }),
		metricsHandler:    metrics.Handler(reg),
		healthChecks:      healthChecks,
		startTime:         time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	addr := s.config.Addr()
	slog.Info("Starting server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones. Upgraded
// listener connections are not tracked here; they end when the broadcaster stops.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
