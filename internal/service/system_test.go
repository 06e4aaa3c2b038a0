package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service/servicetest"
	"github.com/tailorone/backend/pkg/crypto"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newSystemService(t *testing.T, store *servicetest.Config, key string) (*SystemService, *subFixture) {
	t.Helper()
	enc, err := crypto.NewEncryptor(key)
	require.NoError(t, err)
	subs := newSubFixture(t)
	return NewSystemService(store, enc, servicetest.NewUsers(), servicetest.NewOrders(), subs.svc, "rzp_test_key"), subs
}

func TestEmailJSConfig(t *testing.T) {
	store := servicetest.NewConfig()
	svc, _ := newSystemService(t, store, testKey)
	ctx := context.Background()

	empty, err := svc.GetEmailJSConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.EmailJSConfig{}, empty)

	_, err = svc.UpdateEmailJSConfig(ctx, &domain.EmailJSConfig{ServiceID: " service_1 ", TemplateID: "template_1", PublicKey: "pk_live"})
	require.NoError(t, err)

	raw, _ := store.Get(ctx, emailJSConfigKey)
	assert.NotEmpty(t, raw)
	assert.False(t, strings.Contains(raw, "pk_live"), "config must be stored encrypted")

	got, err := svc.GetEmailJSConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.EmailJSConfig{ServiceID: "service_1", TemplateID: "template_1", PublicKey: "pk_live"}, got)

	rotated, _ := newSystemService(t, store, strings.Repeat("k", 32))
	unreadable, err := rotated.GetEmailJSConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.EmailJSConfig{}, unreadable)

	assert.Equal(t, "rzp_test_key", svc.GatewayKeyID())
}

func TestAdminStats(t *testing.T) {
	svc, subs := newSystemService(t, servicetest.NewConfig(), testKey)
	ctx := context.Background()
	plan := subs.addPlan(t, 10, 30)
	_, err := subs.svc.Purchase(ctx, customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	orders := svc.orders.(*servicetest.Orders)
	orders.Put(&domain.Order{ID: domain.NewID(), CustomerID: customer.ID, CreatedAt: time.Now()})

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &AdminStats{Users: 0, Orders: 1, ActiveSubscriptions: 1}, stats)
}
