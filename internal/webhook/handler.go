// Package webhook receives Telegram updates over HTTP and hands them to the
// conversion pipeline.
package webhook

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memohai/mediaconv/internal/media"
	"github.com/memohai/mediaconv/internal/telegram"
)

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

// Path is the dedicated webhook route. The root path is served as well.
const Path = "/webhook"

type updateDispatcher interface {
	Dispatch(ctx context.Context, update media.InboundUpdate) error
}

// Handler authenticates, decodes and dispatches webhook deliveries.
type Handler struct {
	logger     *slog.Logger
	secret     string
	dispatcher updateDispatcher
	deduper    *Deduper
}

// NewHandler creates a webhook handler. An empty secret disables header checks.
// deduper may be nil.
func NewHandler(log *slog.Logger, secret string, dispatcher updateDispatcher, deduper *Deduper) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		logger:     log.With(slog.String("handler", "telegram_webhook")),
		secret:     strings.TrimSpace(secret),
		dispatcher: dispatcher,
		deduper:    deduper,
	}
}

// Register registers webhook routes.
func (h *Handler) Register(e *echo.Echo) {
	e.POST(Path, h.Handle)
	e.POST("/", h.Handle)
}

// Handle accepts one Telegram update. The reply to the user is produced in
// the background; the HTTP answer only acknowledges receipt.
func (h *Handler) Handle(c echo.Context) error {
	if !h.authorized(c.Request().Header.Get(telegram.SecretHeader)) {
		h.logger.Warn("rejected webhook delivery", slog.String("remote_ip", c.RealIP()))
		return echo.NewHTTPError(http.StatusForbidden, "invalid secret token")
	}
	if h.dispatcher == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "webhook dispatcher not configured")
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(payload)) > webhookMaxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", webhookMaxBodyBytes))
	}
	update, ok, err := telegram.ParseUpdate(payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid update payload")
	}
	if !ok {
		return acknowledge(c)
	}
	if h.deduper != nil && h.deduper.Seen(update.UpdateID) {
		h.logger.Info("duplicate update ignored", slog.Int("update_id", update.UpdateID))
		return acknowledge(c)
	}
	if err := h.dispatcher.Dispatch(c.Request().Context(), update); err != nil {
		if h.deduper != nil {
			h.deduper.Forget(update.UpdateID)
		}
		h.logger.Error("dispatch failed", slog.Int("update_id", update.UpdateID), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "not accepting updates")
	}
	return acknowledge(c)
}

func (h *Handler) authorized(header string) bool {
	if h.secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(h.secret)) == 1
}

func acknowledge(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
