package payment

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayOrder is the pre-authorisation created before an order is stored.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway defines the interface for payment providers.
type Gateway interface {
	// CreateOrder registers amount (in minor units) with the provider.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)
	// VerifyPaymentSignature checks the checkout callback signature.
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	// VerifyWebhookSignature checks a webhook body against its signature header.
	VerifyWebhookSignature(body []byte, signature string) bool
}

// ToMinorUnits converts a rupee amount to paise, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Sign returns the hex HMAC-SHA256 of message under secret.
func Sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret string, message []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// MockGateway is an in-process gateway for development and tests. It signs
// with Secret exactly like the real provider.
type MockGateway struct {
	Secret string
	// Err, when set, is returned by CreateOrder.
	Err error

	calls  atomic.Int64
	mu     sync.Mutex
	orders []GatewayOrder
}

func NewMockGateway(secret string) *MockGateway {
	return &MockGateway{Secret: secret}
}

// RandomSecret returns a 32-byte hex secret for a MockGateway that has no
// configured webhook secret.
func RandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate gateway secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (g *MockGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	g.calls.Add(1)
	if g.Err != nil {
		return nil, g.Err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amount)
	}
	o := GatewayOrder{
		ID:       "order_mock_" + uuid.NewString()[:8],
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	g.mu.Lock()
	g.orders = append(g.orders, o)
	g.mu.Unlock()
	return &o, nil
}

func (g *MockGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return validSignature(g.Secret, []byte(orderID+"|"+paymentID), signature)
}

func (g *MockGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return validSignature(g.Secret, body, signature)
}

// Calls reports how many CreateOrder calls were made.
func (g *MockGateway) Calls() int {
	return int(g.calls.Load())
}

// Orders returns the gateway orders created so far.
func (g *MockGateway) Orders() []GatewayOrder {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GatewayOrder(nil), g.orders...)
}
