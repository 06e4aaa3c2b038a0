package domain

import "time"

// Routing keys for lifecycle events.
const (
	EventOrderCreated          = "order.created"
	EventOrderPaymentUpdated   = "order.payment_updated"
	EventOrderStatusUpdated    = "order.status_updated"
	EventSubscriptionPurchased = "subscription.purchased"
	EventSubscriptionExpired   = "subscription.expired"
)

// OrderEvent is published whenever an order changes state.
type OrderEvent struct {
	OrderID       string    `json:"orderId"`
	CustomerID    string    `json:"customerId"`
	TrackingID    string    `json:"trackingId"`
	PaymentStatus string    `json:"paymentStatus"`
	OrderStatus   string    `json:"orderStatus"`
	TotalAmount   float64   `json:"totalAmount"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewOrderEvent snapshots o at now.
func NewOrderEvent(o *Order, now time.Time) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		TrackingID:    o.TrackingID,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		TotalAmount:   o.TotalAmount,
		OccurredAt:    now,
	}
}

// SubscriptionEvent is published on purchase and expiry.
type SubscriptionEvent struct {
	SubscriptionID string    `json:"userSubscriptionId"`
	UserID         string    `json:"userId"`
	PlanName       string    `json:"subscriptionName"`
	Status         string    `json:"status"`
	ClothUsed      int       `json:"clothUsed"`
	ClothLimit     int       `json:"clothLimit"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// NewSubscriptionEvent snapshots s at now.
func NewSubscriptionEvent(s *UserSubscription, now time.Time) SubscriptionEvent {
	return SubscriptionEvent{
		SubscriptionID: s.ID,
		UserID:         s.UserID,
		PlanName:       s.PlanName,
		Status:         s.Status,
		ClothUsed:      s.ClothUsed,
		ClothLimit:     s.ClothLimit,
		OccurredAt:     now,
	}
}
