package service

import (
	"context"
	"fmt"

	"paybridge/internal/domain"
	"paybridge/pkg/payment"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type messenger interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// PushService sends Firebase Cloud Messaging pushes to the admin device.
type PushService struct {
	client     messenger
	adminToken string
	log        *zap.Logger
}

// NewPushService creates the FCM client. Returns nil if Firebase is not configured.
func NewPushService(ctx context.Context, serviceAccountPath, adminToken string, log *zap.Logger) *PushService {
	if serviceAccountPath == "" || adminToken == "" {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Warn("firebase app init failed", zap.Error(err))
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Warn("firebase messaging client failed", zap.Error(err))
		return nil
	}
	return &PushService{client: client, adminToken: adminToken, log: log}
}

func (s *PushService) NotifyOrderPaid(ctx context.Context, o PaidOrder) error {
	if s == nil || s.adminToken == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: "New paid order",
			Body:  fmt.Sprintf("Order %s paid: Rs %s", o.OrderID, FormatMinor(o.AmountMinor)),
		},
		Data: map[string]string{
			"type":         domain.PushTypeOrderPaid,
			"order_id":     o.OrderID,
			"amount_minor": fmt.Sprintf("%d", o.AmountMinor),
		},
		Token: s.adminToken,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	id, err := s.client.Send(ctx, msg)
	if err != nil {
		return payment.NewError(payment.KindNotification, "push.Send", "fcm send failed", nil, err)
	}
	s.log.Debug("push sent", zap.String("order_id", o.OrderID), zap.String("message_id", id))
	return nil
}
