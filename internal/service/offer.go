package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/tailorone/backend/internal/domain"
)

// OfferService manages promotional codes.
type OfferService struct {
	offers   OfferStore
	validate *validator.Validate
	now      func() time.Time
}

func NewOfferService(offers OfferStore) *OfferService {
	return &OfferService{offers: offers, validate: newValidator(), now: time.Now}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ListActive returns offers with the active flag set.
func (s *OfferService) ListActive(ctx context.Context) ([]*domain.Offer, error) {
	offers, err := s.offers.ListActive(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list offers", err)
	}
	return nonNilSlice(offers), nil
}

func (s *OfferService) build(o *domain.Offer, req *domain.OfferRequest) error {
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}
	o.Title = sanitizeText(req.Title)
	o.Code = normalizeCode(req.Code)
	o.Discount = req.Discount
	o.DiscountPercent = req.DiscountPercent
	o.MinAmount = req.MinAmount
	o.Description = sanitizeText(req.Description)
	o.ValidTill = req.ValidTill.UTC()
	o.Active = true
	if req.Active != nil {
		o.Active = *req.Active
	}
	if err := o.Validate(); err != nil {
		return domain.ErrValidation(err.Error())
	}
	return nil
}

// Create adds an offer with a unique code (admin).
func (s *OfferService) Create(ctx context.Context, req *domain.OfferRequest) (*domain.Offer, error) {
	o := &domain.Offer{ID: domain.NewID()}
	if err := s.build(o, req); err != nil {
		return nil, err
	}
	taken, err := s.offers.CodeTaken(ctx, o.Code, o.ID)
	if err != nil {
		return nil, domain.ErrInternal("failed to check offer code", err)
	}
	if taken {
		return nil, domain.ErrConflict("Offer code already exists")
	}
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, storeOfferError(err, "failed to create offer")
	}
	return o, nil
}

// GetByCode returns an active offer by its code.
func (s *OfferService) GetByCode(ctx context.Context, code string) (*domain.Offer, error) {
	o, err := s.offers.FindActiveByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, domain.ErrInternal("failed to find offer", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound("Offer not found or inactive")
	}
	return o, nil
}

// Update replaces an offer; its code must stay unique among the others (admin).
func (s *OfferService) Update(ctx context.Context, id string, req *domain.OfferRequest) (*domain.Offer, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("Offer not found")
	}
	o := &domain.Offer{ID: id}
	if err := s.build(o, req); err != nil {
		return nil, err
	}
	taken, err := s.offers.CodeTaken(ctx, o.Code, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to check offer code", err)
	}
	if taken {
		return nil, domain.ErrConflict("Offer code already exists")
	}
	found, err := s.offers.Update(ctx, o)
	if err != nil {
		return nil, storeOfferError(err, "failed to update offer")
	}
	if !found {
		return nil, domain.ErrNotFound("Offer not found")
	}
	return o, nil
}

// Delete removes an offer (admin).
func (s *OfferService) Delete(ctx context.Context, id string) error {
	if !domain.ValidID(id) {
		return domain.ErrNotFound("Offer not found")
	}
	found, err := s.offers.Delete(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to delete offer", err)
	}
	if !found {
		return domain.ErrNotFound("Offer not found")
	}
	return nil
}

// Apply computes the discount an offer grants on a cart amount.
func (s *OfferService) Apply(ctx context.Context, req *domain.ApplyOfferRequest) (*domain.ApplyOfferResponse, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	o, err := s.GetByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if s.now().After(o.ValidTill) {
		return nil, domain.ErrBadRequest("Offer has expired")
	}
	if req.CartAmount < o.MinAmount {
		return nil, domain.ErrBadRequest(fmt.Sprintf("Minimum cart amount for this offer is %s", decimal.NewFromFloat(o.MinAmount).StringFixed(2)))
	}

	discount := o.DiscountFor(req.CartAmount)
	total, _ := decimal.NewFromFloat(req.CartAmount).Sub(decimal.NewFromFloat(discount)).Float64()
	return &domain.ApplyOfferResponse{Code: o.Code, Discount: discount, TotalAmount: total}, nil
}

func storeOfferError(err error, msg string) error {
	if errors.Is(err, domain.ErrOfferDiscountRequired) {
		return domain.ErrValidation(err.Error())
	}
	return domain.ErrInternal(msg, err)
}
