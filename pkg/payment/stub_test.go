package payment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubProvider_RoundTrip(t *testing.T) {
	s := NewStubProvider("http://localhost:5000/")
	resp, err := s.InitiatePayment(context.Background(), PaymentRequest{OrderID: "DEV1", AmountMinor: 1250, Customer: Customer{ID: "c-1"}})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/verify/DEV1", resp.RedirectURL)

	for i := 0; i < 2; i++ {
		res, err := s.VerifyPayment(context.Background(), "DEV1")
		require.NoError(t, err)
		assert.True(t, res.Succeeded())
		assert.Equal(t, int64(1250), res.AmountMinor)
		assert.Equal(t, "c-1", res.Customer.ID)
	}

	_, err = s.InitiatePayment(context.Background(), PaymentRequest{OrderID: "DEV2"})
	assert.Equal(t, KindPaymentInit, KindOf(err))
}

func TestStubProvider_ForgetsOldestSessions(t *testing.T) {
	s := NewStubProvider("http://localhost:5000")
	for i := 0; i <= stubSessionLimit; i++ {
		_, err := s.InitiatePayment(context.Background(), PaymentRequest{OrderID: fmt.Sprintf("DEV%d", i), AmountMinor: 100})
		require.NoError(t, err)
	}
	_, err := s.InitiatePayment(context.Background(), PaymentRequest{OrderID: "DEV5", AmountMinor: 200})
	require.NoError(t, err)

	assert.Len(t, s.sessions, stubSessionLimit)
	assert.Len(t, s.order, stubSessionLimit)
	assert.NotContains(t, s.sessions, "DEV0")

	res, err := s.VerifyPayment(context.Background(), "DEV0")
	require.NoError(t, err)
	assert.Zero(t, res.AmountMinor)

	res, err = s.VerifyPayment(context.Background(), "DEV5")
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.AmountMinor)
}
