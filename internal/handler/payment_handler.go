package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paybridge/config"
	"paybridge/internal/middleware"
	"paybridge/internal/service"
	"paybridge/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// legacyPayAmountMinor is the fixed test amount charged by GET /pay.
const legacyPayAmountMinor = 1000

// Notifier runs the post-payment side effects.
type Notifier interface {
	OnVerifiedSuccess(ctx context.Context, o service.PaidOrder) *service.Dispatch
	OnOrderSaved(ctx context.Context, o service.PaidOrder) *service.Dispatch
	Persist(ctx context.Context, o service.PaidOrder) error
}

type PaymentHandler struct {
	provider payment.Provider
	notifier Notifier
	cfg      *config.Config
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentHandler(provider payment.Provider, notifier Notifier, cfg *config.Config, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{provider: provider, notifier: notifier, cfg: cfg, log: log, now: time.Now}
}

type createPaymentRequest struct {
	Amount   decimal.Decimal   `json:"amount"`
	OrderID  string            `json:"orderId"`
	Customer *payment.Customer `json:"customer"`
}

func (h *PaymentHandler) paymentRequest(orderID string, amountMinor int64, customer *payment.Customer) payment.PaymentRequest {
	base := h.cfg.Server.PublicBaseURL
	req := payment.PaymentRequest{
		OrderID:     orderID,
		AmountMinor: amountMinor,
		ExpireAfter: h.cfg.PhonePe.ExpireAfter,
		RedirectURL: base + "/verify/" + url.PathEscape(orderID),
		CallbackURL: base + "/phonepe/webhook",
		Message:     h.cfg.PhonePe.CheckoutMessage,
	}
	if customer != nil {
		req.Customer = *customer
	}
	return req
}

// CreatePayment handles POST /create-payment.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var body createPaymentRequest
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
	resp, err := h.provider.InitiatePayment(c.Request.Context(), h.paymentRequest(body.OrderID, amountMinor, body.Customer))
	if err != nil {
		h.log.Warn("create payment failed",
			zap.String("order_id", body.OrderID),
			zap.String("kind", payment.KindOf(err).String()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		status, payload := paymentErrorResponse(err)
		c.JSON(status, payload)
		return
	}
	h.log.Info("payment session created",
		zap.String("order_id", body.OrderID),
		zap.Int64("amount_minor", amountMinor),
		zap.String("request_id", middleware.GetRequestID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "redirectUrl": resp.RedirectURL})
}

// paymentErrorResponse maps a payment-creation error to its HTTP status and JSON body.
func paymentErrorResponse(err error) (int, gin.H) {
	var pe *payment.Error
	if errors.As(err, &pe) && pe.Kind == payment.KindPaymentInit {
		body := gin.H{"success": false, "message": pe.Message}
		if len(pe.Payload) > 0 {
			body["data"] = pe.Payload
		}
		return http.StatusBadRequest, body
	}
	msg := "payment creation failed"
	if pe != nil && pe.Message != "" {
		msg = pe.Message
	}
	return http.StatusInternalServerError, gin.H{"success": false, "message": msg}
}

// Pay handles GET /pay: a no-body test checkout for a fixed amount.
func (h *PaymentHandler) Pay(c *gin.Context) {
	orderID := fmt.Sprintf("ORDER%d", h.now().UnixMilli())
	resp, err := h.provider.InitiatePayment(c.Request.Context(), h.paymentRequest(orderID, legacyPayAmountMinor, nil))
	if err != nil {
		h.log.Warn("legacy pay failed", zap.String("order_id", orderID), zap.Error(err))
		var pe *payment.Error
		if errors.As(err, &pe) && pe.Kind == payment.KindPaymentInit {
			renderPage(c, http.StatusBadRequest, "checkout_error", gin.H{
				"Title":  "Payment creation failed",
				"Detail": prettyJSON(pe.Payload),
			})
			return
		}
		renderPage(c, http.StatusInternalServerError, "checkout_error", gin.H{"Title": "Error", "Detail": err.Error()})
		return
	}
	renderPage(c, http.StatusOK, "checkout", gin.H{
		"OrderID":     orderID,
		"Amount":      service.FormatMinor(legacyPayAmountMinor),
		"RedirectURL": resp.RedirectURL,
	})
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(b)
}

// Verify handles GET /verify/:id. It always answers with a redirect; any
// verification error sends the shopper to the failure page.
func (h *PaymentHandler) Verify(c *gin.Context) {
	orderID := c.Param("id")
	reqID := middleware.GetRequestID(c)
	res, err := h.provider.VerifyPayment(c.Request.Context(), orderID)
	if err != nil {
		h.log.Warn("verification failed",
			zap.String("order_id", orderID),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		c.Redirect(http.StatusFound, h.outcomeURL(false, orderID))
		return
	}
	if !res.Succeeded() {
		h.log.Info("payment not successful",
			zap.String("order_id", orderID),
			zap.String("state", res.State),
			zap.String("gateway_state", res.GatewayState),
			zap.String("request_id", reqID),
		)
		c.Redirect(http.StatusFound, h.outcomeURL(false, orderID))
		return
	}
	if res.OrderID == "" {
		res.OrderID = orderID
	}
	h.log.Info("payment verified",
		zap.String("order_id", orderID),
		zap.Int64("amount_minor", res.AmountMinor),
		zap.String("request_id", reqID),
	)
	h.notifier.OnVerifiedSuccess(context.WithoutCancel(c.Request.Context()), service.PaidOrderFromResult(res, h.now()))
	c.Redirect(http.StatusFound, h.outcomeURL(true, orderID))
}

// outcomeURL returns the configured success/failure URL, or the local page,
// with orderId set as a query parameter.
func (h *PaymentHandler) outcomeURL(success bool, orderID string) string {
	target := h.cfg.Redirect.FailureURL
	fallback := "/fail"
	if success {
		target = h.cfg.Redirect.SuccessURL
		fallback = "/success/" + url.PathEscape(orderID)
	}
	if target == "" {
		target = fallback
	}
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: fallback}
	}
	q := u.Query()
	q.Set("orderId", orderID)
	u.RawQuery = q.Encode()
	return u.String()
}
