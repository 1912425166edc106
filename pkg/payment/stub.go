package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// stubSessionLimit caps remembered sessions; the oldest is forgotten first.
const stubSessionLimit = 1024

// StubProvider is a local provider for development; it never talks to a gateway.
// Every session redirects straight back to the service's /verify route and
// every verification succeeds with the amount the session was created for.
type StubProvider struct {
	BaseURL string

	mu       sync.Mutex
	sessions map[string]PaymentRequest
	order    []string
}

func NewStubProvider(baseURL string) *StubProvider {
	return &StubProvider{BaseURL: strings.TrimRight(baseURL, "/"), sessions: map[string]PaymentRequest{}}
}

func (s *StubProvider) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if req.OrderID == "" || req.AmountMinor <= 0 {
		return nil, NewError(KindPaymentInit, "stub.InitiatePayment", "order id and positive amount required", nil, nil)
	}
	s.remember(req)
	return &PaymentResponse{
		RedirectURL:    fmt.Sprintf("%s/verify/%s", s.BaseURL, req.OrderID),
		GatewayOrderID: "stub_" + req.OrderID,
		State:          "PENDING",
		ExpiresAt:      time.Now().Add(req.ExpireAfter),
	}, nil
}

func (s *StubProvider) VerifyPayment(ctx context.Context, orderID string) (*VerificationResult, error) {
	s.mu.Lock()
	req, ok := s.sessions[orderID]
	s.mu.Unlock()
	res := &VerificationResult{OrderID: orderID, State: StateSucceeded, GatewayState: "COMPLETED"}
	if ok {
		res.AmountMinor = req.AmountMinor
		res.Customer = req.Customer
	}
	return res, nil
}

func (s *StubProvider) remember(req PaymentRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[req.OrderID]; !ok {
		s.order = append(s.order, req.OrderID)
	}
	s.sessions[req.OrderID] = req
	for len(s.order) > stubSessionLimit {
		delete(s.sessions, s.order[0])
		s.order = s.order[1:]
	}
}
