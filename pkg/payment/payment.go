package payment

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
)

const (
	StateSucceeded    = "SUCCEEDED"
	StateNotSucceeded = "NOT_SUCCEEDED"
	StateUnknown      = "UNKNOWN"
)

// AuthToken is a gateway bearer credential. It is replaced wholesale on refresh.
type AuthToken struct {
	Value     string
	Scheme    string
	ExpiresAt time.Time
}

// Valid reports whether the token may still be used at now, keeping margin in reserve.
func (t AuthToken) Valid(now time.Time, margin time.Duration) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-margin))
}

// SetAuthHeader writes "Authorization: <scheme> <token>".
func (t AuthToken) SetAuthHeader(r *http.Request) {
	tok := &oauth2.Token{AccessToken: t.Value, TokenType: t.Scheme, Expiry: t.ExpiresAt}
	tok.SetAuthHeader(r)
}

// Customer is optional storefront context carried through the gateway as metaInfo.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PaymentRequest struct {
	OrderID     string
	AmountMinor int64
	ExpireAfter time.Duration
	RedirectURL string
	CallbackURL string
	Message     string
	Customer    Customer
}

type PaymentResponse struct {
	RedirectURL    string
	GatewayOrderID string
	State          string
	ExpiresAt      time.Time
	Raw            json.RawMessage
}

type VerificationResult struct {
	OrderID       string
	State         string // StateSucceeded, StateNotSucceeded or StateUnknown
	GatewayState  string
	AmountMinor   int64
	TransactionID string
	Customer      Customer
	Raw           json.RawMessage
}

func (r *VerificationResult) Succeeded() bool {
	return r != nil && r.State == StateSucceeded
}

type Provider interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	VerifyPayment(ctx context.Context, orderID string) (*VerificationResult, error)
}

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// AmountToMinor converts a display-currency amount to minor units, rounding
// half away from zero so fractional paise are never truncated. Amounts that
// round to zero paise or do not fit in an int64 are rejected.
func AmountToMinor(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	minor := amount.Mul(hundred).Round(0)
	if !minor.IsPositive() || minor.GreaterThan(maxMinor) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// ErrInvalidAmount is returned for amounts that are not a positive, representable
// number of minor units.
const ErrInvalidAmount = constError("amount must be a positive number")

// NormalizeState maps a gateway order state to a verification state.
func NormalizeState(gatewayState string) string {
	switch gatewayState {
	case "COMPLETED", "SUCCESS":
		return StateSucceeded
	case "":
		return StateUnknown
	default:
		return StateNotSucceeded
	}
}
