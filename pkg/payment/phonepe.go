package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Gateway endpoints per mode.
const (
	SandboxAuthURL        = "https://api-preprod.phonepe.com/apis/pg-sandbox/v1/oauth/token"
	SandboxCheckoutBase   = "https://api-preprod.phonepe.com/apis/pg-sandbox/checkout/v2"
	ProductionAuthURL     = "https://api.phonepe.com/apis/identity-manager/v1/oauth/token"
	ProductionCheckoutURL = "https://api.phonepe.com/apis/pg/checkout/v2"
)

// TokenSource is satisfied by *TokenCache.
type TokenSource interface {
	Token(ctx context.Context) (AuthToken, error)
	Invalidate()
}

// PhonePeProvider implements Provider against PhonePe Standard Checkout v2.
type PhonePeProvider struct {
	CheckoutBase string
	tokens       TokenSource
	client       *http.Client
	log          *zap.Logger
}

func NewPhonePeProvider(checkoutBase string, tokens TokenSource, client *http.Client, log *zap.Logger) *PhonePeProvider {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PhonePeProvider{
		CheckoutBase: strings.TrimRight(checkoutBase, "/"),
		tokens:       tokens,
		client:       client,
		log:          log,
	}
}

type merchantURLs struct {
	RedirectURL string `json:"redirectUrl"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

type paymentFlow struct {
	Type         string       `json:"type"`
	Message      string       `json:"message,omitempty"`
	MerchantUrls merchantURLs `json:"merchantUrls"`
}

type checkoutReq struct {
	MerchantOrderID string            `json:"merchantOrderId"`
	Amount          int64             `json:"amount"`
	ExpireAfter     int64             `json:"expireAfter"`
	MetaInfo        map[string]string `json:"metaInfo,omitempty"`
	PaymentFlow     paymentFlow       `json:"paymentFlow"`
}

func metaInfo(c Customer) map[string]string {
	m := map[string]string{}
	for k, v := range map[string]string{"udf1": c.ID, "udf2": c.Email, "udf3": c.Phone, "udf4": c.Name} {
		if v != "" {
			m[k] = v
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func customerFrom(meta map[string]any) Customer {
	if meta == nil {
		return Customer{}
	}
	return Customer{
		ID:    firstString(meta, "udf1"),
		Email: firstString(meta, "udf2"),
		Phone: firstString(meta, "udf3"),
		Name:  firstString(meta, "udf4"),
	}
}

// InitiatePayment creates a hosted-checkout session and returns its redirect URL.
func (p *PhonePeProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	const op = "phonepe.InitiatePayment"
	if req.OrderID == "" {
		return nil, NewError(KindPaymentInit, op, "order id is required", nil, nil)
	}
	if req.AmountMinor <= 0 {
		return nil, NewError(KindPaymentInit, op, ErrInvalidAmount.Error(), nil, nil)
	}
	tok, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	expire := req.ExpireAfter
	if expire <= 0 {
		expire = 20 * time.Minute
	}
	payload := checkoutReq{
		MerchantOrderID: req.OrderID,
		Amount:          req.AmountMinor,
		ExpireAfter:     int64(expire / time.Second),
		MetaInfo:        metaInfo(req.Customer),
		PaymentFlow: paymentFlow{
			Type:    "PG_CHECKOUT",
			Message: req.Message,
			MerchantUrls: merchantURLs{
				RedirectURL: req.RedirectURL,
				CallbackURL: req.CallbackURL,
			},
		},
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.CheckoutBase+"/pay", bytes.NewReader(body))
	if err != nil {
		return nil, NewError(KindGatewayResponse, op, "build request", nil, err)
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Accept", "application/json")
	tok.SetAuthHeader(apiReq)
	p.log.Info("creating checkout session",
		zap.String("order_id", req.OrderID),
		zap.Int64("amount_minor", req.AmountMinor))
	p.log.Debug("checkout payload", zap.ByteString("body", body))
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, NewError(KindGatewayResponse, op, "checkout request failed", nil, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(KindGatewayResponse, op, "read body", nil, err)
	}
	p.log.Debug("checkout response", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
	p.dropRejectedToken(resp.StatusCode, req.OrderID)
	doc, err := decodeDocument(respBody)
	if err != nil {
		return nil, NewError(KindGatewayResponse, op, "invalid JSON in gateway response", respBody, err)
	}
	redirect := firstString(doc, redirectPaths...)
	code := firstString(doc, codePaths...)
	if redirect == "" || !(plausibleURL(redirect) || code == "" || code == "SUCCESS") {
		msg := "no redirect URL in gateway response"
		if code != "" {
			msg = fmt.Sprintf("%s (code %s)", msg, code)
		}
		if m := firstString(doc, messagePaths...); m != "" {
			msg = msg + ": " + m
		}
		p.log.Warn("checkout session not created",
			zap.String("order_id", req.OrderID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return nil, NewError(KindPaymentInit, op, msg, respBody, nil)
	}
	out := &PaymentResponse{
		RedirectURL:    redirect,
		GatewayOrderID: firstString(doc, orderIDPaths...),
		State:          firstString(doc, statePaths...),
		Raw:            json.RawMessage(respBody),
	}
	if ms, ok := firstInt(doc, expireAtPaths...); ok {
		out.ExpiresAt = time.UnixMilli(ms)
	}
	p.log.Info("checkout session created",
		zap.String("order_id", req.OrderID),
		zap.String("gateway_order_id", out.GatewayOrderID))
	return out, nil
}

// VerifyPayment fetches the order status. A non-successful payment is a
// result, not an error; only transport and parse failures return an error.
func (p *PhonePeProvider) VerifyPayment(ctx context.Context, orderID string) (*VerificationResult, error) {
	const op = "phonepe.VerifyPayment"
	tok, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, NewError(KindVerification, op, "token unavailable", nil, err)
	}
	endpoint := fmt.Sprintf("%s/order/%s/status?details=false", p.CheckoutBase, url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewError(KindVerification, op, "build request", nil, err)
	}
	req.Header.Set("Accept", "application/json")
	tok.SetAuthHeader(req)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NewError(KindVerification, op, "status request failed", nil, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(KindVerification, op, "read body", nil, err)
	}
	p.log.Debug("status response",
		zap.String("order_id", orderID),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body))
	p.dropRejectedToken(resp.StatusCode, orderID)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewError(KindVerification, op, fmt.Sprintf("status endpoint returned %d", resp.StatusCode), body, nil)
	}
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, NewError(KindVerification, op, "invalid JSON in status response", body, err)
	}
	gwState := firstString(doc, statePaths...)
	amount, _ := firstInt(doc, amountPaths...)
	res := &VerificationResult{
		OrderID:       orderID,
		State:         NormalizeState(gwState),
		GatewayState:  gwState,
		AmountMinor:   amount,
		TransactionID: firstString(doc, txnIDPaths...),
		Customer:      customerFrom(firstObject(doc, metaInfoPaths...)),
		Raw:           json.RawMessage(body),
	}
	p.log.Info("order status fetched",
		zap.String("order_id", orderID),
		zap.String("gateway_state", gwState),
		zap.String("state", res.State))
	return res, nil
}

// dropRejectedToken forgets the cached token once the gateway refuses it, so
// the next call authenticates again instead of waiting out the TTL.
func (p *PhonePeProvider) dropRejectedToken(status int, orderID string) {
	if status != http.StatusUnauthorized {
		return
	}
	p.log.Warn("gateway rejected access token", zap.String("order_id", orderID))
	p.tokens.Invalidate()
}

func plausibleURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
