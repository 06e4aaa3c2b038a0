package domain

import (
	"math"
	"time"
)

// Subscription instance statuses.
const (
	SubscriptionActive    = "Active"
	SubscriptionExpired   = "Expired"
	SubscriptionCancelled = "Cancelled"
)

const day = 24 * time.Hour

// ContactAddress is the short address snapshot kept on a subscription.
type ContactAddress struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

// SubscriptionContact is an optional contact snapshot taken at purchase.
type SubscriptionContact struct {
	Name    string          `json:"name,omitempty"`
	Phone   string          `json:"phone,omitempty"`
	Address *ContactAddress `json:"address,omitempty"`
}

// UserSubscription is a user's purchased instance of a catalog plan.
type UserSubscription struct {
	ID           string               `json:"id"`
	UserID       string               `json:"userId"`
	PlanID       string               `json:"subscriptionId"`
	PlanName     string               `json:"subscriptionName"`
	Price        float64              `json:"price"`
	DurationDays int                  `json:"durationDays"`
	ClothLimit   int                  `json:"clothLimit"`
	ClothUsed    int                  `json:"clothUsed"`
	Status       string               `json:"status"`
	Active       bool                 `json:"active"`
	StartDate    time.Time            `json:"startDate"`
	EndDate      time.Time            `json:"endDate"`
	Contact      *SubscriptionContact `json:"contact,omitempty"`
	Notes        string               `json:"notes"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// NewUserSubscription activates plan for userID at now.
func NewUserSubscription(userID string, plan *Plan, now time.Time) *UserSubscription {
	duration := plan.EffectiveDuration()
	return &UserSubscription{
		ID:           NewID(),
		UserID:       userID,
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		Price:        plan.Price,
		DurationDays: duration,
		ClothLimit:   plan.ClothLimit,
		ClothUsed:    0,
		Status:       SubscriptionActive,
		Active:       true,
		StartDate:    now,
		EndDate:      now.Add(time.Duration(duration) * day),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// MaxClothCount is the largest cloth counter the store holds (INTEGER column).
const MaxClothCount = math.MaxInt32

// AddUsage increments ClothUsed by n, saturating at MaxClothCount so the
// counter never wraps. Non-positive n is ignored.
func (s *UserSubscription) AddUsage(n int) {
	if n <= 0 || s.ClothUsed >= MaxClothCount {
		return
	}
	if n > MaxClothCount-s.ClothUsed {
		s.ClothUsed = MaxClothCount
		return
	}
	s.ClothUsed += n
}

// DeriveStatus returns the status s should have at now. An instance whose end date
// has passed or whose cloth allowance is used up is Expired; otherwise the stored
// status stands, including admin overrides.
func DeriveStatus(now time.Time, s *UserSubscription) string {
	if !now.Before(s.EndDate) || s.ClothUsed >= s.ClothLimit {
		return SubscriptionExpired
	}
	return s.Status
}

// ApplyDerivedStatus updates s in place and reports whether anything changed.
func ApplyDerivedStatus(now time.Time, s *UserSubscription) bool {
	derived := DeriveStatus(now, s)
	if derived == s.Status {
		return false
	}
	s.Status = derived
	if derived == SubscriptionExpired {
		s.Active = false
	}
	return true
}

// DaysLeft is the whole number of days until EndDate, rounded up, never negative.
func (s *UserSubscription) DaysLeft(now time.Time) int {
	diff := s.EndDate.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// UserSubscriptionView is a subscription together with its computed days left.
type UserSubscriptionView struct {
	*UserSubscription
	DaysLeft int `json:"daysLeft"`
}

// SubscriptionStats summarises instances by status.
type SubscriptionStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Expired   int `json:"expired"`
	Cancelled int `json:"cancelled"`
}

// PurchaseRequest is the input for buying a plan.
type PurchaseRequest struct {
	UserID         string               `json:"userId" validate:"omitempty,uuid"`
	SubscriptionID string               `json:"subscriptionId" validate:"required"`
	Contact        *SubscriptionContact `json:"contact"`
}

// UsageRequest records clothes consumed against an instance.
type UsageRequest struct {
	Used int `json:"used"`
}

// SubscriptionStatusRequest is the admin override input.
type SubscriptionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Active Expired Cancelled"`
}
