package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Payment modes.
const (
	PaymentModeGateway = "Razorpay"
	PaymentModeCOD     = "COD"
)

// Payment statuses.
const (
	PaymentPaid   = "Paid"
	PaymentUnpaid = "Unpaid"
)

// Order statuses.
const (
	OrderPending    = "Pending"
	OrderConfirmed  = "Confirmed"
	OrderInProgress = "In-Progress"
	OrderReady      = "Ready"
	OrderDelivered  = "Delivered"
	OrderCancelled  = "Cancelled"
)

// OrderStatuses lists every accepted order status.
var OrderStatuses = []string{OrderPending, OrderConfirmed, OrderInProgress, OrderReady, OrderDelivered, OrderCancelled}

// DefaultDeliveryWithin is used when the customer does not pick a timeframe.
const DefaultDeliveryWithin = "24 hours"

// OrderAddress is the address snapshot embedded in an order.
type OrderAddress struct {
	HouseNo  string `json:"houseNo"`
	Street   string `json:"street"`
	Landmark string `json:"landmark"`
	Line1    string `json:"line1"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
}

// OrderItem is one service line of an order.
type OrderItem struct {
	Name  string  `json:"name"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// Order is a customer's service order.
type Order struct {
	ID             string       `json:"id"`
	CustomerID     string       `json:"customerId"`
	CustomerPhone  string       `json:"customerPhone"`
	Address        OrderAddress `json:"address"`
	Services       []OrderItem  `json:"services"`
	Subtotal       float64      `json:"subtotal"`
	OfferCode      *string      `json:"offerCode"`
	Discount       float64      `json:"discount"`
	TotalAmount    float64      `json:"totalAmount"`
	PaymentMode    string       `json:"paymentMode"`
	PaymentStatus  string       `json:"paymentStatus"`
	OrderStatus    string       `json:"orderStatus"`
	GatewayOrderID *string      `json:"razorpayOrderId"`
	PickupTime     time.Time    `json:"pickupTime"`
	DeliveryWithin string       `json:"deliveryWithin"`
	DeliveryTime   *time.Time   `json:"deliveryTime"`
	TrackingID     string       `json:"trackingId"`
	Notes          string       `json:"notes"`
	AdminRemarks   string       `json:"adminRemarks"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// CreateOrderRequest is the customer payload for placing an order.
// Field presence rules are checked by the order service so that each
// failure names the offending field.
type CreateOrderRequest struct {
	Services       []OrderItem   `json:"services"`
	Address        *OrderAddress `json:"address"`
	Subtotal       float64       `json:"subtotal"`
	OfferCode      string        `json:"offerCode"`
	Discount       float64       `json:"discount"`
	TotalAmount    float64       `json:"totalAmount"`
	PaymentMode    string        `json:"paymentMode"`
	Notes          string        `json:"notes"`
	PickupTime     string        `json:"pickupTime"`
	CustomerPhone  string        `json:"customerPhone"`
	DeliveryWithin string        `json:"deliveryWithin"`
}

// UpdatePaymentRequest records the payment outcome for an order.
type UpdatePaymentRequest struct {
	OrderID       string `json:"orderId" validate:"required"`
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=Paid Unpaid"`
}

// UpdateOrderStatusRequest is the admin status overwrite.
type UpdateOrderStatusRequest struct {
	OrderStatus  string     `json:"orderStatus" validate:"required,oneof=Pending Confirmed In-Progress Ready Delivered Cancelled"`
	DeliveryTime *time.Time `json:"deliveryTime"`
	AdminRemarks *string    `json:"adminRemarks" validate:"omitempty,max=1000"`
}

// VerifyPaymentRequest carries the gateway checkout callback fields.
type VerifyPaymentRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	Signature      string `json:"razorpay_signature" validate:"required"`
}

// NewTrackingID returns a human-readable order reference. Collisions are possible.
func NewTrackingID() string {
	return fmt.Sprintf("TLR-DEL-%d", rand.IntN(10000))
}

// ValidDeliveryWithin reports whether v is an accepted delivery timeframe.
func ValidDeliveryWithin(v string) bool {
	switch v {
	case "12 hours", "24 hours", "48 hours", "72 hours":
		return true
	}
	return false
}
