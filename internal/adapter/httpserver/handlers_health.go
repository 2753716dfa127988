package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hbpc002/log-lottery/internal/app"
	"github.com/hbpc002/log-lottery/internal/platform/version"
	"github.com/labstack/echo/v4"
)

const readinessProbeTimeout = 2 * time.Second

// HealthCheck is a named readiness condition.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type livenessResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	app.Stats
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

// handleLiveness answers as long as the process can serve HTTP; checks are not consulted.
func (s *Server) handleLiveness(c echo.Context) error {
	response := livenessResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		Version:       version.Version,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness runs every check and reports each result next to the current wall stats.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	response := readinessResponse{
		Status: "ready",
		Checks: s.runHealthChecks(ctx),
		Stats:  s.submissions.Stats(),
	}

	status := http.StatusOK
	for _, result := range response.Checks {
		if result != "ok" {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			break
		}
	}

	if err := c.JSON(status, response); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

func (s *Server) runHealthChecks(ctx context.Context) map[string]string {
	results := make(map[string]string, len(s.healthChecks))
	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			results[hc.Name] = err.Error()
			continue
		}
		results[hc.Name] = "ok"
	}
	return results
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
