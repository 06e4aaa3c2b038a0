package domain

import "time"

// DefaultPlanDurationDays applies when a catalog plan omits its validity.
const DefaultPlanDurationDays = 30

// Plan is a subscription template from the catalog.
type Plan struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`        // in rupees
	DurationDays int       `json:"durationDays"` // validity in days
	ClothLimit   int       `json:"clothLimit"`   // clothes allowed per plan
	Benefits     []string  `json:"benefits"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EffectiveDuration returns the plan validity, defaulting to 30 days.
func (p *Plan) EffectiveDuration() int {
	if p.DurationDays > 0 {
		return p.DurationDays
	}
	return DefaultPlanDurationDays
}

// PlanRequest is the validated input for creating or updating a catalog plan.
type PlanRequest struct {
	Name         string   `json:"name" validate:"required,max=100"`
	Price        float64  `json:"price" validate:"gte=0"`
	DurationDays int      `json:"durationDays" validate:"gte=0"`
	ClothLimit   int      `json:"clothLimit" validate:"required,gt=0,lte=2147483647"`
	Benefits     []string `json:"benefits" validate:"omitempty,dive,max=200"`
	Active       *bool    `json:"active"`
}
