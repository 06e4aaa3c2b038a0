package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrOfferDiscountRequired is returned when an offer has neither or both discount kinds.
var ErrOfferDiscountRequired = errors.New("either discount or discountPercent must be provided")

// Offer is a promotional code.
type Offer struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Code            string    `json:"code"`
	Discount        *float64  `json:"discount"`        // flat, in rupees
	DiscountPercent *float64  `json:"discountPercent"` // percentage
	MinAmount       float64   `json:"minAmount"`
	Description     string    `json:"description"`
	ValidTill       time.Time `json:"validTill"`
	Active          bool      `json:"active"`
}

// Validate enforces that exactly one discount kind is set.
func (o *Offer) Validate() error {
	if (o.Discount == nil) == (o.DiscountPercent == nil) {
		return ErrOfferDiscountRequired
	}
	return nil
}

// DiscountFor computes the discount this offer grants on amount, capped at amount.
func (o *Offer) DiscountFor(amount float64) float64 {
	total := decimal.NewFromFloat(amount)
	var off decimal.Decimal
	switch {
	case o.Discount != nil:
		off = decimal.NewFromFloat(*o.Discount)
	case o.DiscountPercent != nil:
		off = total.Mul(decimal.NewFromFloat(*o.DiscountPercent)).Div(decimal.NewFromInt(100)).Round(2)
	}
	if off.GreaterThan(total) {
		off = total
	}
	f, _ := off.Float64()
	return f
}

// OfferRequest is the input for creating or updating an offer.
type OfferRequest struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Code            string     `json:"code" validate:"required,max=50"`
	Discount        *float64   `json:"discount" validate:"omitempty,gt=0"`
	DiscountPercent *float64   `json:"discountPercent" validate:"omitempty,gt=0,lte=100"`
	MinAmount       float64    `json:"minAmount" validate:"gte=0"`
	Description     string     `json:"description" validate:"max=2000"`
	ValidTill       *time.Time `json:"validTill" validate:"required"`
	Active          *bool      `json:"active"`
}

// ApplyOfferRequest asks what an offer is worth for a cart amount.
type ApplyOfferRequest struct {
	Code       string  `json:"code" validate:"required"`
	CartAmount float64 `json:"cartAmount" validate:"gte=0"`
}

// ApplyOfferResponse is the computed discount.
type ApplyOfferResponse struct {
	Code        string  `json:"code"`
	Discount    float64 `json:"discount"`
	TotalAmount float64 `json:"totalAmount"`
}
