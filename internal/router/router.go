package router

import (
	"context"
	"time"

	"paybridge/config"
	"paybridge/internal/handler"
	"paybridge/internal/middleware"
	"paybridge/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP surface needs. Webhooks, Orders and
// Rewards are nil when persistence is disabled; the admin API is then not mounted.
type Deps struct {
	Provider payment.Provider
	Notifier handler.Notifier
	Webhooks handler.WebhookStore
	Orders   handler.OrderReader
	Rewards  handler.RewardReader
	Log      *zap.Logger
}

// Setup builds the engine. ctx bounds the rate limiters' background sweepers.
func Setup(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		deps.Log.Warn("invalid TRUSTED_PROXIES, trusting no proxy", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(middleware.RequestID(), middleware.AccessLog(deps.Log), middleware.Recovery(deps.Log))

	checkoutLimit := middleware.RateLimit(middleware.NewInMemoryRateLimiter(ctx, 30, time.Minute))
	loginLimit := middleware.RateLimit(middleware.NewInMemoryRateLimiter(ctx, 10, time.Minute))

	paymentHandler := handler.NewPaymentHandler(deps.Provider, deps.Notifier, cfg, deps.Log)
	webhookHandler := handler.NewWebhookHandler(deps.Webhooks, deps.Log)

	r.GET("/", handler.Index)
	r.GET("/ping", handler.Ping)
	r.GET("/pay", checkoutLimit, paymentHandler.Pay)
	r.POST("/create-payment", checkoutLimit, paymentHandler.CreatePayment)
	r.GET("/verify/:id", paymentHandler.Verify)
	r.GET("/success/:id", handler.Success)
	r.GET("/fail", handler.Fail)
	r.POST("/phonepe/webhook", webhookHandler.PhonePe)
	r.POST("/order-save", paymentHandler.SaveOrder)

	if deps.Orders != nil && deps.Rewards != nil {
		adminHandler := handler.NewAdminHandler(&cfg.Admin, deps.Orders, deps.Rewards)
		admin := r.Group("/api/v1/admin")
		{
			admin.POST("/login", loginLimit, adminHandler.Login)
			protected := admin.Group("")
			protected.Use(middleware.AuthRequired(&cfg.Admin), middleware.AdminRequired())
			{
				protected.GET("/orders", adminHandler.ListOrders)
				protected.GET("/orders/:id", adminHandler.GetOrder)
				protected.GET("/rewards/:customer_id", adminHandler.GetRewards)
			}
		}
	}
	return r
}
