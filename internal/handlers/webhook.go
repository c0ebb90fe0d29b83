// Package handlers registers the HTTP routes of the webhook API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vendorlink/vendorlink/internal/transport"
	"github.com/vendorlink/vendorlink/internal/transport/twilio"
)

// WebhookHandler receives inbound Twilio messages and feeds them to the
// inbound processor. The processor replies over the REST API, so the webhook
// response is an empty TwiML document.
type WebhookHandler struct {
	processor transport.InboundHandler
	logger    *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(log *slog.Logger, processor transport.InboundHandler) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    log.With(slog.String("handler", "webhook")),
	}
}

// Register mounts POST /webhook/twilio.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook/twilio", h.Receive)
}

// Receive parses the webhook form and processes the message. The buyer-facing
// reply (including supplier fan-out) completes before this returns.
func (h *WebhookHandler) Receive(c echo.Context) error {
	msg, err := twilio.ParseWebhook(c.Request())
	if err != nil {
		h.logger.Warn("unparsable webhook payload", slog.Any("error", err))
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.processor.HandleInbound(c.Request().Context(), msg); err != nil {
		h.logger.Error("inbound handling failed",
			slog.String("from", msg.From),
			slog.Any("error", err))
	}
	return c.XMLBlob(http.StatusOK, []byte("<Response></Response>"))
}
