package payment

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies failures along the payment flow. The set is closed.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuth: token exchange with the gateway failed.
	KindAuth
	// KindGatewayResponse: the gateway answered with a body that is not JSON.
	KindGatewayResponse
	// KindPaymentInit: the gateway answered but gave no usable redirect URL.
	KindPaymentInit
	// KindVerification: the order status could not be fetched or parsed.
	KindVerification
	// KindNotification: a post-payment side effect failed.
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindGatewayResponse:
		return "gateway_response"
	case KindPaymentInit:
		return "payment_init"
	case KindVerification:
		return "verification"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by gateway operations and fan-out tasks.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Payload holds the raw gateway body when one was received.
	Payload json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrAuth) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

var (
	ErrAuth            = &Error{Kind: KindAuth}
	ErrGatewayResponse = &Error{Kind: KindGatewayResponse}
	ErrPaymentInit     = &Error{Kind: KindPaymentInit}
	ErrVerification    = &Error{Kind: KindVerification}
	ErrNotification    = &Error{Kind: KindNotification}
)

// NewError builds an *Error. payload may be nil.
func NewError(kind Kind, op, message string, payload []byte, err error) *Error {
	e := &Error{Kind: kind, Op: op, Message: message, Err: err}
	if len(payload) > 0 {
		e.Payload = json.RawMessage(append([]byte(nil), payload...))
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
