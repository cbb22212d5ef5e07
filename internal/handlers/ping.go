package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/mediaconv/internal/healthcheck"
	"github.com/memohai/mediaconv/internal/version"
)

type checkRunner interface {
	Run(ctx context.Context) healthcheck.Report
}

type PingHandler struct {
	logger *slog.Logger
	checks checkRunner
}

func NewPingHandler(log *slog.Logger, checks *healthcheck.Aggregator) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	h := &PingHandler{logger: log.With(slog.String("handler", "ping"))}
	if checks != nil {
		h.checks = checks
	}
	return h
}

func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.GET("/health", h.Health)
	e.HEAD("/health", h.PingHead)
	e.GET("/health/checks", h.Checks)
}

func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Get().Version,
	})
}

// Health is the plain liveness probe used by hosting platforms.
func (h *PingHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (h *PingHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Checks runs the runtime checks. A failing check turns the answer into 503.
func (h *PingHandler) Checks(c echo.Context) error {
	if h.checks == nil {
		return c.JSON(http.StatusOK, healthcheck.Report{Status: healthcheck.StatusOK, Checks: []healthcheck.CheckResult{}})
	}
	report := h.checks.Run(c.Request().Context())
	status := http.StatusOK
	if !report.Healthy() {
		h.logger.Warn("health checks failing", slog.String("status", report.Status))
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
