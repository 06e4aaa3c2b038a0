package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 50050, body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "receipt_1", body["receipt"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":50050,"currency":"INR","receipt":"receipt_1","status":"created"}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(RazorpayConfig{KeyID: "rzp_test_key", KeySecret: "secret", BaseURL: srv.URL + "/"})
	order, err := g.CreateOrder(context.Background(), 50050, "INR", "receipt_1")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(50050), order.Amount)
}

func TestRazorpayGateway_CreateOrderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount exceeds maximum"}}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(RazorpayConfig{KeyID: "k", KeySecret: "s", BaseURL: srv.URL})
	_, err := g.CreateOrder(context.Background(), 1, "INR", "r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount exceeds maximum")
}

func TestSignatures(t *testing.T) {
	g := NewRazorpayGateway(RazorpayConfig{KeySecret: "key-secret", WebhookSecret: "hook-secret"})

	sig := Sign("key-secret", "order_1|pay_1")
	assert.True(t, g.VerifyPaymentSignature("order_1", "pay_1", sig))
	assert.False(t, g.VerifyPaymentSignature("order_1", "pay_2", sig))
	assert.False(t, g.VerifyPaymentSignature("order_1", "pay_1", ""))

	body := []byte(`{"event":"order.paid"}`)
	assert.True(t, g.VerifyWebhookSignature(body, Sign("hook-secret", string(body))))
	assert.False(t, g.VerifyWebhookSignature(body, Sign("key-secret", string(body))))
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(50050), ToMinorUnits(500.50))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(0), ToMinorUnits(0))
	assert.Equal(t, int64(101), ToMinorUnits(1.005))
}

func TestMockGateway(t *testing.T) {
	g := NewMockGateway("s")
	o, err := g.CreateOrder(context.Background(), 100, "INR", "r")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 1, g.Calls())
	assert.Len(t, g.Orders(), 1)

	g.Err = errors.New("down")
	_, err = g.CreateOrder(context.Background(), 100, "INR", "r")
	assert.Error(t, err)
	assert.Equal(t, 2, g.Calls())
}
