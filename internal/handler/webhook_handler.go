package handler

import (
	"context"
	"io"
	"net/http"

	"paybridge/internal/domain"
	"paybridge/internal/middleware"
	"paybridge/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody bounds how much of an inbound callback is read.
const maxWebhookBody = 1 << 20

type WebhookStore interface {
	Create(ctx context.Context, e *models.WebhookEvent) error
}

type WebhookHandler struct {
	store WebhookStore
	log   *zap.Logger
}

// NewWebhookHandler creates the handler; store may be nil when persistence is off.
func NewWebhookHandler(store WebhookStore, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{store: store, log: log}
}

// PhonePe handles POST /phonepe/webhook. The callback is logged, stored when
// possible and always acknowledged. Signatures are not verified.
func (h *WebhookHandler) PhonePe(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("webhook body read failed", zap.Error(err))
	}
	reqID := middleware.GetRequestID(c)
	h.log.Info("webhook received",
		zap.String("provider", domain.ProviderPhonePe),
		zap.Int("bytes", len(body)),
		zap.String("request_id", reqID),
	)
	h.log.Debug("webhook body", zap.ByteString("body", body))
	if h.store != nil && len(body) > 0 {
		ev := &models.WebhookEvent{
			Provider:    domain.ProviderPhonePe,
			RequestID:   reqID,
			ContentType: c.ContentType(),
			Body:        string(body),
		}
		if err := h.store.Create(context.WithoutCancel(c.Request.Context()), ev); err != nil {
			h.log.Warn("webhook store failed", zap.String("request_id", reqID), zap.Error(err))
		}
	}
	c.String(http.StatusOK, "Webhook acknowledged")
}
