package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"paybridge/config"
	"paybridge/internal/database"
	"paybridge/internal/logger"
	"paybridge/internal/repository"
	"paybridge/internal/router"
	"paybridge/internal/service"
	"paybridge/pkg/payment"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := newProvider(cfg, zl)
	deps := router.Deps{Provider: provider, Log: zl}
	fanDeps := service.FanOutDeps{}

	if cfg.Database.DSN != "" {
		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			zl.Fatal("database", zap.Error(err))
		}
		if err := database.AutoMigrate(db); err != nil {
			zl.Fatal("migrate", zap.Error(err))
		}
		orders := repository.NewOrderRepository(db)
		rewards := repository.NewRewardRepository(db)
		deps.Orders, deps.Rewards = orders, rewards
		deps.Webhooks = repository.NewWebhookRepository(db)
		fanDeps.Orders = orders
		fanDeps.Rewards = service.NewRewardService(rewards, cfg.Rewards.MinorUnitsPerPoint)
	} else {
		zl.Warn("DATABASE_DSN not set: order persistence, reward accrual, webhook storage and the admin API are disabled")
	}

	fanDeps.Mail = service.NewEmailService(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.AdminEmail, zl)
	fanDeps.SMS = service.NewSMSService(cfg.SMS.APIKey, cfg.SMS.BaseURL, cfg.SMS.Route, cfg.Notify.Timeout, zl)
	if push := service.NewPushService(ctx, cfg.Firebase.ServiceAccountPath, cfg.Firebase.AdminDeviceToken, zl); push != nil {
		fanDeps.Push = push
		zl.Info("admin push notifications enabled")
	}
	fanout := service.NewFanOut(fanDeps, cfg.Notify.Timeout, zl)
	deps.Notifier = fanout

	engine := router.Setup(ctx, cfg, deps)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zl.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("mode", cfg.PhonePe.Mode),
			zap.String("merchant_id", cfg.PhonePe.MerchantID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("listen", zap.Error(err))
		}
	}()
	<-ctx.Done()
	zl.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
	fanout.Wait()
	fmt.Println("server stopped")
}

func newProvider(cfg *config.Config, zl *zap.Logger) payment.Provider {
	if cfg.PhonePe.Mode == config.ModeStub {
		zl.Warn("MODE=stub: payments are simulated and always succeed")
		return payment.NewStubProvider(cfg.Server.PublicBaseURL)
	}
	client := &http.Client{Timeout: cfg.PhonePe.Timeout}
	authn := payment.NewAuthenticator(cfg.PhonePe.AuthURL, payment.Credentials{
		ClientID:      cfg.PhonePe.ClientID,
		ClientSecret:  cfg.PhonePe.ClientSecret,
		ClientVersion: cfg.PhonePe.ClientVersion,
	}, client, zl)
	tokens := payment.NewTokenCache(authn, cfg.PhonePe.TokenTTL, cfg.PhonePe.TokenMargin)
	return payment.NewPhonePeProvider(cfg.PhonePe.CheckoutBaseURL, tokens, client, zl)
}
