package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"paybridge/internal/domain"
	"paybridge/internal/middleware"
	"paybridge/internal/service"
	"paybridge/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type orderSaveRequest struct {
	OrderID       string            `json:"orderId"`
	Amount        decimal.Decimal   `json:"amount"`
	PaymentStatus string            `json:"payment_status"`
	VerifiedAt    string            `json:"verifiedAt"`
	Customer      *payment.Customer `json:"customer"`
}

// SaveOrder handles POST /order-save: upsert the order, then email the admin.
func (h *PaymentHandler) SaveOrder(c *gin.Context) {
	var body orderSaveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	body.OrderID = strings.TrimSpace(body.OrderID)
	if body.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "orderId is required"})
		return
	}
	amountMinor, err := payment.AmountToMinor(body.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	verifiedAt := h.now()
	if body.VerifiedAt != "" {
		t, err := time.Parse(time.RFC3339, body.VerifiedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "verifiedAt must be an RFC 3339 timestamp"})
			return
		}
		verifiedAt = t
	}
	o := service.PaidOrder{
		OrderID:      body.OrderID,
		AmountMinor:  amountMinor,
		Status:       domain.NormalizeOrderStatus(body.PaymentStatus),
		GatewayState: body.PaymentStatus,
		Source:       domain.OrderSourceManual,
		VerifiedAt:   verifiedAt,
	}
	if body.Customer != nil {
		o.Customer = *body.Customer
	}
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.notifier.Persist(ctx, o); err != nil {
		h.log.Error("order save failed",
			zap.String("order_id", o.OrderID),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to save order"})
		return
	}
	h.notifier.OnOrderSaved(ctx, o)
	c.JSON(http.StatusOK, gin.H{"success": true, "orderId": o.OrderID, "status": o.Status})
}
