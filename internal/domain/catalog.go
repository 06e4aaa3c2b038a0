package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one entry in a shopping cart.
type CartItem struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gt=0"`
	Quantity int     `json:"quantity" validate:"gt=0"`
}

// Cart statuses.
const (
	CartPending = "Pending"
	CartPaid    = "Paid"
)

// Cart is the single cart a user keeps before ordering.
type Cart struct {
	UserID        string     `json:"userId"`
	Items         []CartItem `json:"items"`
	Total         float64    `json:"total"`
	PaymentStatus string     `json:"paymentStatus"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CartTotal sums price times quantity over items.
func CartTotal(items []CartItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	f, _ := sum.Float64()
	return f
}

// SaveCartRequest replaces the items of a cart.
type SaveCartRequest struct {
	UserID string     `json:"userId" validate:"omitempty,uuid"`
	Items  []CartItem `json:"items" validate:"required,min=1,dive"`
}

// CartUserRequest names the cart owner for mark-paid and clear.
type CartUserRequest struct {
	UserID    string `json:"userId" validate:"omitempty,uuid"`
	PaymentID string `json:"paymentId"`
}

// Address is a saved address-book entry.
type Address struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Label       string `json:"label"`
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Phone       string `json:"phone"`
}

// AddressRequest is the input for adding an address.
type AddressRequest struct {
	Label       string `json:"label" validate:"max=50"`
	AddressLine string `json:"addressLine" validate:"required,max=300"`
	City        string `json:"city" validate:"required,max=100"`
	State       string `json:"state" validate:"required,max=100"`
	Pincode     string `json:"pincode" validate:"required,max=12"`
	Phone       string `json:"phone" validate:"required,max=20"`
}

// Service is a laundry or tailoring service offered in the catalog.
type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ServiceRequest is the input for adding or updating a catalog service.
type ServiceRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"required,max=1000"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

// EmailJSConfig holds the client-side e-mail widget settings.
type EmailJSConfig struct {
	ServiceID  string `json:"emailjsServiceId"`
	TemplateID string `json:"emailjsTemplateId"`
	PublicKey  string `json:"emailjsPublicKey"`
}
