package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"paybridge/pkg/payment"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const fast2smsBulkPath = "/dev/bulkV2"

// SMSService sends order confirmations through Fast2SMS. With no API key it is a no-op.
type SMSService struct {
	client *resty.Client
	route  string
	log    *zap.Logger
}

func NewSMSService(apiKey, baseURL, route string, timeout time.Duration, log *zap.Logger) *SMSService {
	if log == nil {
		log = zap.NewNop()
	}
	if route == "" {
		route = "q"
	}
	s := &SMSService{route: route, log: log}
	if apiKey == "" {
		return s
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s.client = resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("authorization", apiKey).
		SetHeader("Content-Type", "application/json")
	return s
}

type fast2smsResponse struct {
	Return    bool            `json:"return"`
	RequestID string          `json:"request_id"`
	Message   json.RawMessage `json:"message"`
}

func (s *SMSService) SendOrderConfirmation(ctx context.Context, o PaidOrder) error {
	number := NormalizeIndianMobile(o.Customer.Phone)
	if s.client == nil || number == "" {
		return nil
	}
	msg := fmt.Sprintf("Payment of Rs %s received for order %s. Thank you for shopping with us.", FormatMinor(o.AmountMinor), o.OrderID)
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"route": s.route, "message": msg, "numbers": number}).
		Post(fast2smsBulkPath)
	if err != nil {
		return payment.NewError(payment.KindNotification, "sms.Send", "sms request failed", nil, err)
	}
	var out fast2smsResponse
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 || json.Unmarshal(resp.Body(), &out) != nil || !out.Return {
		return payment.NewError(payment.KindNotification, "sms.Send",
			fmt.Sprintf("sms provider rejected message (status %d)", resp.StatusCode()), resp.Body(), nil)
	}
	s.log.Info("sms sent", zap.String("order_id", o.OrderID), zap.String("request_id", out.RequestID))
	return nil
}

// NormalizeIndianMobile keeps the last ten digits of phone, dropping a +91 or 0
// prefix and separators. It returns "" when fewer than ten digits remain.
func NormalizeIndianMobile(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 10 {
		return ""
	}
	return digits[len(digits)-10:]
}
