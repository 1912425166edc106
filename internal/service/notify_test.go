package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"paybridge/pkg/payment"

	"firebase.google.com/go/v4/messaging"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*resend.SendEmailRequest
	err  error
}

func (f *fakeSender) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &resend.SendEmailResponse{Id: "em_1"}, nil
}

func TestEmailService_CustomerConfirmation(t *testing.T) {
	sender := &fakeSender{}
	s := NewEmailService("", "shop@example.com", "admin@example.com", zap.NewNop())
	s.emails = sender

	o := paidOrder("ORDER1", 10000)
	o.PointsEarned = 10
	require.NoError(t, s.SendCustomerConfirmation(context.Background(), o))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "shop@example.com", msg.From)
	assert.Equal(t, []string{"buyer@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "ORDER1")
	assert.Contains(t, msg.Html, "100.00")
	assert.Contains(t, msg.Html, "10 reward points")

	require.NoError(t, s.SendCustomerConfirmation(context.Background(), paidOrder("ORDER1", 10000)))
	require.Len(t, sender.sent, 2)
	assert.NotContains(t, sender.sent[1].Html, "reward points")
}

func TestEmailService_AdminNotification(t *testing.T) {
	sender := &fakeSender{}
	s := NewEmailService("", "shop@example.com", "admin@example.com", zap.NewNop())
	s.emails = sender

	o := paidOrder("<ORDER2>", 49900)
	require.NoError(t, s.SendAdminNotification(context.Background(), o))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"admin@example.com"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Html, "&lt;ORDER2&gt;")
	assert.Contains(t, sender.sent[0].Html, "499.00")
}

func TestEmailService_SkipsWhenUnconfigured(t *testing.T) {
	s := NewEmailService("", "shop@example.com", "", zap.NewNop())
	assert.NoError(t, s.SendCustomerConfirmation(context.Background(), paidOrder("ORDER1", 100)))
	assert.NoError(t, s.SendAdminNotification(context.Background(), paidOrder("ORDER1", 100)))

	sender := &fakeSender{}
	s.emails = sender
	o := paidOrder("ORDER1", 100)
	o.Customer.Email = ""
	assert.NoError(t, s.SendCustomerConfirmation(context.Background(), o))
	assert.NoError(t, s.SendAdminNotification(context.Background(), o))
	assert.Empty(t, sender.sent)
}

func TestEmailService_SendErrorIsNotificationKind(t *testing.T) {
	s := NewEmailService("", "shop@example.com", "admin@example.com", zap.NewNop())
	s.emails = &fakeSender{err: errors.New("rate limited")}
	err := s.SendAdminNotification(context.Background(), paidOrder("ORDER1", 100))
	assert.ErrorIs(t, err, payment.ErrNotification)
}

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "100.00", FormatMinor(10000))
	assert.Equal(t, "0.05", FormatMinor(5))
	assert.Equal(t, "499.99", FormatMinor(49999))
}

func TestNormalizeIndianMobile(t *testing.T) {
	assert.Equal(t, "9876543210", NormalizeIndianMobile("+91 98765 43210"))
	assert.Equal(t, "9876543210", NormalizeIndianMobile("09876543210"))
	assert.Equal(t, "9876543210", NormalizeIndianMobile("9876543210"))
	assert.Equal(t, "", NormalizeIndianMobile("12345"))
	assert.Equal(t, "", NormalizeIndianMobile(""))
}

func TestSMSService_SendsThroughProvider(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("authorization")
		assert.Equal(t, "/dev/bulkV2", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"return":true,"request_id":"r1","message":["SMS sent successfully."]}`))
	}))
	defer srv.Close()

	s := NewSMSService("key-1", srv.URL, "", time.Second, zap.NewNop())
	require.NoError(t, s.SendOrderConfirmation(context.Background(), paidOrder("ORDER1", 10000)))
	assert.Equal(t, "key-1", auth)
	assert.Equal(t, "q", got["route"])
	assert.Equal(t, "9876543210", got["numbers"])
	assert.Contains(t, got["message"], "ORDER1")
	assert.Contains(t, got["message"], "100.00")
}

func TestSMSService_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
		_, _ = w.Write([]byte(`{"return":false,"status_code":412,"message":"Invalid Authentication"}`))
	}))
	defer srv.Close()

	s := NewSMSService("bad", srv.URL, "q", time.Second, zap.NewNop())
	err := s.SendOrderConfirmation(context.Background(), paidOrder("ORDER1", 10000))
	require.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrNotification)
	var pe *payment.Error
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, string(pe.Payload), "Invalid Authentication")
}

func TestSMSService_SkipsWithoutKeyOrPhone(t *testing.T) {
	s := NewSMSService("", "http://127.0.0.1:1", "q", time.Second, zap.NewNop())
	assert.NoError(t, s.SendOrderConfirmation(context.Background(), paidOrder("ORDER1", 100)))

	s = NewSMSService("key", "http://127.0.0.1:1", "q", time.Second, zap.NewNop())
	o := paidOrder("ORDER1", 100)
	o.Customer.Phone = ""
	assert.NoError(t, s.SendOrderConfirmation(context.Background(), o))
}

type fakeMessenger struct {
	msgs []*messaging.Message
	err  error
}

func (f *fakeMessenger) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.msgs = append(f.msgs, msg)
	return "projects/p/messages/1", nil
}

func TestPushService_NotifyOrderPaid(t *testing.T) {
	m := &fakeMessenger{}
	s := &PushService{client: m, adminToken: "device-1", log: zap.NewNop()}

	require.NoError(t, s.NotifyOrderPaid(context.Background(), paidOrder("ORDER1", 10000)))
	require.Len(t, m.msgs, 1)
	assert.Equal(t, "device-1", m.msgs[0].Token)
	assert.Equal(t, "ORDER_PAID", m.msgs[0].Data["type"])
	assert.Equal(t, "10000", m.msgs[0].Data["amount_minor"])
	assert.Contains(t, m.msgs[0].Notification.Body, "100.00")

	m.err = errors.New("unregistered")
	assert.ErrorIs(t, s.NotifyOrderPaid(context.Background(), paidOrder("ORDER1", 10000)), payment.ErrNotification)
}

func TestPushService_NilSafe(t *testing.T) {
	var s *PushService
	assert.NoError(t, s.NotifyOrderPaid(context.Background(), paidOrder("ORDER1", 1)))
	assert.Nil(t, NewPushService(context.Background(), "", "device", zap.NewNop()))
}
