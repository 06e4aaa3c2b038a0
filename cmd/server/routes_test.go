package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailorone/backend/internal/config"
	"github.com/tailorone/backend/internal/handler"
	"github.com/tailorone/backend/internal/service"
	"github.com/tailorone/backend/internal/service/servicetest"
	"github.com/tailorone/backend/pkg/crypto"
	"github.com/tailorone/backend/pkg/mailer"
	"github.com/tailorone/backend/pkg/payment"
)

const (
	adminEmail    = "admin@tailorone.test"
	adminPassword = "admin-pass"
	webhookSecret = "whsec"
)

type testServer struct {
	router http.Handler
	orders *servicetest.Orders
}

func newTestServer(t *testing.T, health map[string]handler.HealthCheck) *testServer {
	t.Helper()

	users := servicetest.NewUsers()
	orders := servicetest.NewOrders()
	events := &servicetest.Events{}

	authSvc := service.NewAuthService(service.AuthConfig{
		JWTSecret:     "router-test-secret",
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}, users, mailer.LogMailer{})
	require.NoError(t, authSvc.SeedAdmin(context.Background()))

	enc, err := crypto.NewEncryptor("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	subSvc := service.NewSubscriptionService(servicetest.NewPlans(), servicetest.NewSubscriptions(), events)
	orderSvc := service.NewOrderService(orders, payment.NewMockGateway(webhookSecret), events, "INR")

	if health == nil {
		health = map[string]handler.HealthCheck{"database": func(context.Context) error { return nil }}
	}

	return &testServer{
		orders: orders,
		router: newRouter(routerDeps{
			cfg:           &config.Config{CORSOrigins: []string{"*"}},
			auth:          authSvc,
			subscriptions: subSvc,
			orders:        orderSvc,
			offers:        service.NewOfferService(servicetest.NewOffers()),
			carts:         service.NewCartService(servicetest.NewCarts()),
			addresses:     service.NewAddressService(servicetest.NewAddresses()),
			catalog:       service.NewCatalogService(servicetest.NewCatalog()),
			system:        service.NewSystemService(servicetest.NewConfig(), enc, users, orders, subSvc, "rzp_test_key"),
			health:        health,
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, body)
	return body["token"].(string)
}

func (s *testServer) customerToken(t *testing.T) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, body)
	return s.login(t, "asha@example.com", "secret1")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])

	s = newTestServer(t, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("down") },
	})
	rec, body = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "error", body["redis"])
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(t, http.MethodGet, "/api/getkey", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rzp_test_key", body["keyId"])

	rec, body = s.do(t, http.MethodGet, "/api/subscriptions", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/auth/me", "/api/orders/my-orders", "/api/address"} {
		rec, body := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, false, body["success"], path)
	}
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.customerToken(t)

	rec, body := s.do(t, http.MethodGet, "/api/orders/all", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied. Admins only.", body["message"])

	admin := s.login(t, adminEmail, adminPassword)
	rec, body = s.do(t, http.MethodGet, "/api/admin/stats", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["users"])

	rec, body = s.do(t, http.MethodGet, "/api/users?role=customer", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	customerID := body["users"].([]interface{})[0].(map[string]interface{})["id"].(string)

	rec, body = s.do(t, http.MethodGet, "/api/users/"+customerID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asha@example.com", body["user"].(map[string]interface{})["email"])
	assert.Empty(t, body["subscriptions"])
}

func TestCreateOrderAndWebhook(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.customerToken(t)

	rec, body := s.do(t, http.MethodPost, "/api/orders/create", token, map[string]interface{}{
		"services":    []map[string]interface{}{{"name": "Shirt", "qty": 2, "price": 50}},
		"address":     map[string]string{"line1": "12 MG Road", "city": "Pune", "pincode": "411001"},
		"subtotal":    100,
		"totalAmount": 100,
		"paymentMode": "Razorpay",
		"pickupTime":  "2025-03-02T09:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "Order created successfully", body["message"])

	gw := body["razorpayOrder"].(map[string]interface{})
	gatewayOrderID := gw["id"].(string)
	orderID := body["order"].(map[string]interface{})["id"].(string)

	hook := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"` + gatewayOrderID + `"}}}}`)
	post := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewReader(hook))
		req.Header.Set("X-Razorpay-Signature", sig)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, post("bogus").Code)
	assert.Equal(t, http.StatusOK, post(payment.Sign(webhookSecret, string(hook))).Code)

	rec, body = s.do(t, http.MethodGet, "/api/orders/"+orderID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := body["order"].(map[string]interface{})
	assert.Equal(t, "Paid", order["paymentStatus"])
	assert.Equal(t, "Confirmed", order["orderStatus"])
}

func TestForgotPasswordLimiter(t *testing.T) {
	h := forgotPasswordLimiter(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/forget-password", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 200, 200, 429}, codes)
}

func TestNewGatewayMockSecret(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := newGateway(&config.Config{}, log)
	require.NoError(t, err)
	second, err := newGateway(&config.Config{}, log)
	require.NoError(t, err)

	a := first.(*payment.MockGateway).Secret
	b := second.(*payment.MockGateway).Secret
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	body := []byte(`{"event":"order.paid"}`)
	assert.False(t, first.VerifyWebhookSignature(body, payment.Sign("dev-secret", string(body))))
	assert.True(t, first.VerifyWebhookSignature(body, payment.Sign(a, string(body))))

	configured, err := newGateway(&config.Config{RazorpayWebhookSecret: "whsec_local"}, log)
	require.NoError(t, err)
	assert.Equal(t, "whsec_local", configured.(*payment.MockGateway).Secret)
}
