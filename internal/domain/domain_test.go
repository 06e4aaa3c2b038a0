package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

func activeSub(limit int, days int) *UserSubscription {
	plan := &Plan{ID: NewID(), Name: "Monthly", ClothLimit: limit, DurationDays: days}
	return NewUserSubscription(NewID(), plan, start)
}

func TestNewUserSubscription(t *testing.T) {
	s := activeSub(20, 0)
	assert.Equal(t, DefaultPlanDurationDays, s.DurationDays)
	assert.Equal(t, start.Add(30*day), s.EndDate)
	assert.Equal(t, SubscriptionActive, s.Status)
	assert.True(t, s.Active)
	assert.Zero(t, s.ClothUsed)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		used   int
		status string
		at     time.Time
		want   string
	}{
		{"fresh", 0, SubscriptionActive, start, SubscriptionActive},
		{"below limit", 9, SubscriptionActive, start.Add(day), SubscriptionActive},
		{"at limit", 10, SubscriptionActive, start, SubscriptionExpired},
		{"over limit", 12, SubscriptionActive, start, SubscriptionExpired},
		{"at end date", 0, SubscriptionActive, start.Add(30 * day), SubscriptionExpired},
		{"cancelled stays", 0, SubscriptionCancelled, start, SubscriptionCancelled},
		{"cancelled past end", 0, SubscriptionCancelled, start.Add(31 * day), SubscriptionExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := activeSub(10, 30)
			s.ClothUsed = tt.used
			s.Status = tt.status
			assert.Equal(t, tt.want, DeriveStatus(tt.at, s))
		})
	}
}

func TestApplyDerivedStatus(t *testing.T) {
	s := activeSub(10, 30)
	assert.False(t, ApplyDerivedStatus(start, s))

	s.ClothUsed = 10
	assert.True(t, ApplyDerivedStatus(start, s))
	assert.Equal(t, SubscriptionExpired, s.Status)
	assert.False(t, s.Active)
	assert.False(t, ApplyDerivedStatus(start, s))
}

func TestDaysLeft(t *testing.T) {
	s := activeSub(10, 30)
	assert.Equal(t, 30, s.DaysLeft(start))
	assert.Equal(t, 30, s.DaysLeft(start.Add(time.Minute)))
	assert.Equal(t, 1, s.DaysLeft(start.Add(29*day+23*time.Hour)))
	assert.Equal(t, 0, s.DaysLeft(start.Add(30*day)))
	assert.Equal(t, 0, s.DaysLeft(start.Add(45*day)))
}

func TestOffer(t *testing.T) {
	flat, pct := 100.0, 15.0

	assert.ErrorIs(t, (&Offer{}).Validate(), ErrOfferDiscountRequired)
	assert.ErrorIs(t, (&Offer{Discount: &flat, DiscountPercent: &pct}).Validate(), ErrOfferDiscountRequired)
	require.NoError(t, (&Offer{Discount: &flat}).Validate())

	assert.Equal(t, 100.0, (&Offer{Discount: &flat}).DiscountFor(250))
	assert.Equal(t, 80.0, (&Offer{Discount: &flat}).DiscountFor(80))
	assert.Equal(t, 37.5, (&Offer{DiscountPercent: &pct}).DiscountFor(250))
	assert.Equal(t, 15.0, (&Offer{DiscountPercent: &pct}).DiscountFor(99.99))
}

func TestCartTotal(t *testing.T) {
	assert.Equal(t, 0.0, CartTotal(nil))
	assert.Equal(t, 0.3, CartTotal([]CartItem{{Price: 0.1, Quantity: 1}, {Price: 0.2, Quantity: 1}}))
	assert.Equal(t, 1250.0, CartTotal([]CartItem{{Price: 250, Quantity: 3}, {Price: 500, Quantity: 1}}))
}

func TestNewTrackingID(t *testing.T) {
	for range 50 {
		assert.Regexp(t, `^TLR-DEL-\d{1,4}$`, NewTrackingID())
	}
}

func TestValidDeliveryWithin(t *testing.T) {
	assert.True(t, ValidDeliveryWithin(DefaultDeliveryWithin))
	assert.True(t, ValidDeliveryWithin("72 hours"))
	assert.False(t, ValidDeliveryWithin("6 hours"))
	assert.False(t, ValidDeliveryWithin(""))
}

func TestAsAppError(t *testing.T) {
	wrapped := ErrUpstream("Failed to create payment order", assert.AnError)
	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 500, appErr.Code)
	assert.ErrorIs(t, wrapped, assert.AnError)

	_, ok = AsAppError(assert.AnError)
	assert.False(t, ok)
}

func TestAddUsage(t *testing.T) {
	s := activeSub(40, 30)

	s.AddUsage(5)
	s.AddUsage(-3)
	s.AddUsage(0)
	assert.Equal(t, 5, s.ClothUsed)

	s.AddUsage(math.MaxInt)
	assert.Equal(t, MaxClothCount, s.ClothUsed)
	assert.Equal(t, SubscriptionExpired, DeriveStatus(start, s))

	s.AddUsage(1)
	assert.Equal(t, MaxClothCount, s.ClothUsed)
}
