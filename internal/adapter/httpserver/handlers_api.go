package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hbpc002/log-lottery/internal/adapter/metrics"
	"github.com/hbpc002/log-lottery/internal/domain"
	apperrors "github.com/hbpc002/log-lottery/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

const listenerRoute = "/api/ws"

type submitPersonRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (s *Server) registerAPIRoutes() {
	submitLimiter := newSubmitLimiter(s.config.SubmitRateLimit, s.config.SubmitRateBurst)

	s.echo.POST("/api/user-msg", s.handleUserMsg)
	s.echo.POST("/api/submit-person", s.handleSubmitPerson, submitLimiter)
	s.echo.GET("/api/stats", s.handleStats)
	s.echo.GET(listenerRoute, echo.WrapHandler(s.websocketHandler))
}

func (s *Server) handleUserMsg(c echo.Context) error {
	if err := c.JSON(http.StatusOK, apperrors.OK("sent", nil)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSubmitPerson(c echo.Context) error {
	var req submitPersonRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").Wrap(err)
	}

	if _, err := s.submissions.Submit(c.Request().Context(), req.Name, req.Phone); err != nil {
		return s.submissionError(err)
	}
	s.submissionMetrics.Observe(metrics.OutcomeAccepted)

	if err := c.JSON(http.StatusOK, apperrors.OK("Submitted", nil)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// submissionError maps a Submit failure onto its HTTP error and counts the outcome.
func (s *Server) submissionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		s.submissionMetrics.Observe(metrics.OutcomeInvalidName)
		return apperrors.ValidationError(domain.ErrInvalidName.Error()).Wrap(err)
	case errors.Is(err, domain.ErrInvalidPhone):
		s.submissionMetrics.Observe(metrics.OutcomeInvalidPhone)
		return apperrors.ValidationError(domain.ErrInvalidPhone.Error()).Wrap(err)
	case errors.Is(err, domain.ErrDuplicatePhone):
		s.submissionMetrics.Observe(metrics.OutcomeDuplicate)
		return apperrors.ConflictError(domain.ErrDuplicatePhone.Error()).Wrap(err)
	default:
		return apperrors.InternalError("failed to submit", err)
	}
}

func (s *Server) handleStats(c echo.Context) error {
	if err := c.JSON(http.StatusOK, apperrors.OK("ok", s.submissions.Stats())); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
