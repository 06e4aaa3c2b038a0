package service

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service/servicetest"
)

var t0 = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

func requireAppError(t *testing.T, err error, code int) *domain.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

type subFixture struct {
	svc    *SubscriptionService
	plans  *servicetest.Plans
	subs   *servicetest.Subscriptions
	events *servicetest.Events
	clock  *time.Time
}

func newSubFixture(t *testing.T) *subFixture {
	t.Helper()
	f := &subFixture{
		plans:  servicetest.NewPlans(),
		subs:   servicetest.NewSubscriptions(),
		events: &servicetest.Events{},
	}
	now := t0
	f.clock = &now
	f.svc = NewSubscriptionService(f.plans, f.subs, f.events)
	f.svc.now = func() time.Time { return *f.clock }
	return f
}

func (f *subFixture) addPlan(t *testing.T, duration, limit int) *domain.Plan {
	t.Helper()
	p := &domain.Plan{ID: domain.NewID(), Name: "Monthly", Price: 499, DurationDays: duration, ClothLimit: limit, Active: true}
	require.NoError(t, f.plans.Create(context.Background(), p))
	return p
}

var customer = domain.Principal{ID: "7b1c8f8e-2f6e-4c43-9a4c-3c1d1f0a0001", Email: "c@example.com", Role: domain.RoleCustomer}
var admin = domain.Principal{ID: "7b1c8f8e-2f6e-4c43-9a4c-3c1d1f0a0002", Email: "a@example.com", Role: domain.RoleAdmin}

func TestPurchase_CreatesActiveInstance(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 40)

	sub, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	assert.Equal(t, customer.ID, sub.UserID)
	assert.Equal(t, plan.ID, sub.PlanID)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.True(t, sub.Active)
	assert.Equal(t, 0, sub.ClothUsed)
	assert.Equal(t, 40, sub.ClothLimit)
	assert.Equal(t, t0, sub.StartDate)
	assert.Equal(t, t0.Add(30*24*time.Hour), sub.EndDate)
	assert.Equal(t, int64(30*24*60*60*1000), sub.EndDate.Sub(sub.StartDate).Milliseconds())
	assert.Equal(t, []string{domain.EventSubscriptionPurchased}, f.events.Published())
}

func TestPurchase_DefaultsDuration(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 0, 10)

	sub, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)
	assert.Equal(t, 30, sub.DurationDays)
	assert.Equal(t, t0.AddDate(0, 0, 30), sub.EndDate)
}

func TestPurchase_AllowsStacking(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 10)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
		require.NoError(t, err)
	}
	views, err := f.svc.ListByUser(context.Background(), customer, customer.ID)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestPurchase_UnknownPlan(t *testing.T) {
	f := newSubFixture(t)

	_, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: "not-an-id"})
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: domain.NewID()})
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{})
	requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, 0, f.subs.Writes)
}

func TestPurchase_OnBehalfOfAnotherUser(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 10)
	other := domain.NewID()

	_, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{UserID: other, SubscriptionID: plan.ID})
	requireAppError(t, err, http.StatusForbidden)

	sub, err := f.svc.Purchase(context.Background(), admin, &domain.PurchaseRequest{UserID: other, SubscriptionID: plan.ID})
	require.NoError(t, err)
	assert.Equal(t, other, sub.UserID)
}

func TestRecordUsage_ExpiresAtLimit(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 40)
	sub, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	view, err := f.svc.RecordUsage(context.Background(), customer, sub.ID, 40)
	require.NoError(t, err)

	assert.Equal(t, 40, view.ClothUsed)
	assert.Equal(t, domain.SubscriptionExpired, view.Status)
	assert.False(t, view.Active)
	assert.Equal(t, 30, view.DaysLeft)
	assert.Equal(t, []string{domain.EventSubscriptionPurchased, domain.EventSubscriptionExpired}, f.events.Published())

	stored, _ := f.subs.FindByID(context.Background(), sub.ID)
	assert.Equal(t, domain.SubscriptionExpired, stored.Status)
}

func TestRecordUsage_Monotonic(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 40)
	sub, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	prev := 0
	for _, used := range []int{5, 0, -3, 2, -100, 10} {
		view, err := f.svc.RecordUsage(context.Background(), customer, sub.ID, used)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, view.ClothUsed, prev)
		prev = view.ClothUsed
	}
	assert.Equal(t, 17, prev)
}

func TestRecordUsage_HugeAmountSaturates(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 40)
	sub, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	_, err = f.svc.RecordUsage(context.Background(), customer, sub.ID, 5)
	require.NoError(t, err)

	view, err := f.svc.RecordUsage(context.Background(), customer, sub.ID, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxClothCount, view.ClothUsed)
	assert.Equal(t, domain.SubscriptionExpired, view.Status)

	view, err = f.svc.RecordUsage(context.Background(), customer, sub.ID, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxClothCount, view.ClothUsed)
}

func TestRecordUsage_ExpiresPastEndDate(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 40)
	sub, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	*f.clock = t0.Add(30 * 24 * time.Hour)
	view, err := f.svc.RecordUsage(context.Background(), customer, sub.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionExpired, view.Status)
	assert.Equal(t, 0, view.DaysLeft)
}

func TestRecordUsage_NotFoundAndForbidden(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 40)
	sub, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	_, err = f.svc.RecordUsage(context.Background(), customer, "bogus", 1)
	requireAppError(t, err, http.StatusNotFound)
	_, err = f.svc.RecordUsage(context.Background(), customer, domain.NewID(), 1)
	requireAppError(t, err, http.StatusNotFound)

	stranger := domain.Principal{ID: domain.NewID(), Role: domain.RoleCustomer}
	_, err = f.svc.RecordUsage(context.Background(), stranger, sub.ID, 1)
	requireAppError(t, err, http.StatusForbidden)

	stored, _ := f.subs.FindByID(context.Background(), sub.ID)
	assert.Equal(t, 0, stored.ClothUsed)

	_, err = f.svc.RecordUsage(context.Background(), admin, sub.ID, 1)
	require.NoError(t, err)
}

func TestListAll_CorrectsStaleInstances(t *testing.T) {
	f := newSubFixture(t)
	stale := &domain.UserSubscription{
		ID: domain.NewID(), UserID: customer.ID, ClothLimit: 10,
		Status: domain.SubscriptionActive, Active: true,
		StartDate: t0.Add(-40 * 24 * time.Hour), EndDate: t0.Add(-10 * 24 * time.Hour),
		CreatedAt: t0.Add(-40 * 24 * time.Hour),
	}
	fresh := &domain.UserSubscription{
		ID: domain.NewID(), UserID: customer.ID, ClothLimit: 10,
		Status: domain.SubscriptionActive, Active: true,
		StartDate: t0, EndDate: t0.Add(36 * time.Hour), CreatedAt: t0,
	}
	f.subs.Put(stale)
	f.subs.Put(fresh)

	views, err := f.svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	// newest first
	assert.Equal(t, fresh.ID, views[0].ID)
	assert.Equal(t, domain.SubscriptionActive, views[0].Status)
	assert.Equal(t, 2, views[0].DaysLeft)

	assert.Equal(t, stale.ID, views[1].ID)
	assert.Equal(t, domain.SubscriptionExpired, views[1].Status)
	assert.Equal(t, 0, views[1].DaysLeft)

	stored, _ := f.subs.FindByID(context.Background(), stale.ID)
	assert.Equal(t, domain.SubscriptionExpired, stored.Status)
	assert.False(t, stored.Active)

	for _, v := range views {
		assert.False(t, v.Status == domain.SubscriptionActive && !t0.Before(v.EndDate))
	}
}

func TestListByUser_RequiresOwnerOrAdmin(t *testing.T) {
	f := newSubFixture(t)

	_, err := f.svc.ListByUser(context.Background(), customer, domain.NewID())
	requireAppError(t, err, http.StatusForbidden)

	views, err := f.svc.ListByUser(context.Background(), admin, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestChangeStatus_Unguarded(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 40)
	sub, err := f.svc.Purchase(context.Background(), customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	for _, status := range []string{domain.SubscriptionExpired, domain.SubscriptionActive, domain.SubscriptionCancelled, domain.SubscriptionActive} {
		got, err := f.svc.ChangeStatus(context.Background(), sub.ID, &domain.SubscriptionStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	_, err = f.svc.ChangeStatus(context.Background(), sub.ID, &domain.SubscriptionStatusRequest{Status: "Paused"})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = f.svc.ChangeStatus(context.Background(), domain.NewID(), &domain.SubscriptionStatusRequest{Status: domain.SubscriptionActive})
	requireAppError(t, err, http.StatusNotFound)
}

func TestStatsAndExpireDue(t *testing.T) {
	f := newSubFixture(t)
	plan := f.addPlan(t, 30, 40)
	ctx := context.Background()

	a, err := f.svc.Purchase(ctx, customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)
	b, err := f.svc.Purchase(ctx, customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)
	_, err = f.svc.Purchase(ctx, customer, &domain.PurchaseRequest{SubscriptionID: plan.ID})
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, a.ID, &domain.SubscriptionStatusRequest{Status: domain.SubscriptionCancelled})
	require.NoError(t, err)
	_, err = f.svc.RecordUsage(ctx, customer, b.ID, 40)
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStats{Total: 3, Active: 1, Expired: 1, Cancelled: 1}, *stats)

	*f.clock = t0.Add(31 * 24 * time.Hour)
	n, err := f.svc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPlanCatalog(t *testing.T) {
	f := newSubFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreatePlan(ctx, &domain.PlanRequest{Name: "Basic", Price: 299, ClothLimit: 20, Benefits: []string{"Free pickup"}})
	require.NoError(t, err)
	assert.True(t, p.Active)

	_, err = f.svc.CreatePlan(ctx, &domain.PlanRequest{Name: "Broken", Price: 10})
	requireAppError(t, err, http.StatusBadRequest)

	inactive := false
	_, err = f.svc.UpdatePlan(ctx, p.ID, &domain.PlanRequest{Name: "Basic", Price: 349, ClothLimit: 20, Active: &inactive})
	require.NoError(t, err)

	plans, err := f.svc.ListActivePlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)

	require.NoError(t, f.svc.DeletePlan(ctx, p.ID))
	requireAppError(t, f.svc.DeletePlan(ctx, p.ID), http.StatusNotFound)
}
