package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service/servicetest"
)

func newOfferService() (*OfferService, *servicetest.Offers) {
	store := servicetest.NewOffers()
	svc := NewOfferService(store)
	svc.now = func() time.Time { return t0 }
	return svc, store
}

func ptr[T any](v T) *T { return &v }

func offerReq(code string, flat, percent *float64) *domain.OfferRequest {
	return &domain.OfferRequest{
		Title:           "Festive",
		Code:            code,
		Discount:        flat,
		DiscountPercent: percent,
		MinAmount:       200,
		ValidTill:       ptr(t0.Add(7 * 24 * time.Hour)),
	}
}

func TestOfferCreate(t *testing.T) {
	svc, _ := newOfferService()
	ctx := context.Background()

	o, err := svc.Create(ctx, offerReq(" diwali20 ", nil, ptr(20.0)))
	require.NoError(t, err)
	assert.Equal(t, "DIWALI20", o.Code)
	assert.True(t, o.Active)

	_, err = svc.Create(ctx, offerReq("Diwali20", ptr(50.0), nil))
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Offer code already exists", appErr.Message)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestOfferCreate_DiscountKinds(t *testing.T) {
	svc, store := newOfferService()
	ctx := context.Background()

	_, err := svc.Create(ctx, offerReq("NONE", nil, nil))
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, domain.ErrOfferDiscountRequired.Error(), appErr.Message)

	_, err = svc.Create(ctx, offerReq("BOTH", ptr(10.0), ptr(10.0)))
	requireAppError(t, err, http.StatusBadRequest)

	_, err = svc.Create(ctx, offerReq("HUGE", nil, ptr(150.0)))
	requireAppError(t, err, http.StatusBadRequest)

	found, _ := store.CodeTaken(ctx, "NONE", "")
	assert.False(t, found)
}

func TestOfferUpdateAndDelete(t *testing.T) {
	svc, _ := newOfferService()
	ctx := context.Background()

	a, err := svc.Create(ctx, offerReq("FIRST", ptr(50.0), nil))
	require.NoError(t, err)
	b, err := svc.Create(ctx, offerReq("SECOND", ptr(50.0), nil))
	require.NoError(t, err)

	_, err = svc.Update(ctx, b.ID, offerReq("first", ptr(50.0), nil))
	requireAppError(t, err, http.StatusBadRequest)

	req := offerReq("FIRST", nil, ptr(5.0))
	req.Active = ptr(false)
	updated, err := svc.Update(ctx, a.ID, req)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Nil(t, updated.Discount)

	_, err = svc.GetByCode(ctx, "first")
	appErr := requireAppError(t, err, http.StatusNotFound)
	assert.Equal(t, "Offer not found or inactive", appErr.Message)

	_, err = svc.Update(ctx, domain.NewID(), offerReq("THIRD", ptr(1.0), nil))
	requireAppError(t, err, http.StatusNotFound)

	require.NoError(t, svc.Delete(ctx, b.ID))
	requireAppError(t, svc.Delete(ctx, b.ID), http.StatusNotFound)
	requireAppError(t, svc.Delete(ctx, "x"), http.StatusNotFound)
}

func TestOfferApply(t *testing.T) {
	svc, _ := newOfferService()
	ctx := context.Background()
	_, err := svc.Create(ctx, offerReq("PCT", nil, ptr(12.5)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, offerReq("FLAT", ptr(500.0), nil))
	require.NoError(t, err)

	got, err := svc.Apply(ctx, &domain.ApplyOfferRequest{Code: "pct", CartAmount: 399})
	require.NoError(t, err)
	assert.Equal(t, 49.88, got.Discount)
	assert.Equal(t, 349.12, got.TotalAmount)

	// flat discounts never exceed the cart
	got, err = svc.Apply(ctx, &domain.ApplyOfferRequest{Code: "FLAT", CartAmount: 300})
	require.NoError(t, err)
	assert.Equal(t, 300.0, got.Discount)
	assert.Equal(t, 0.0, got.TotalAmount)

	_, err = svc.Apply(ctx, &domain.ApplyOfferRequest{Code: "FLAT", CartAmount: 150})
	appErr := requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Minimum cart amount for this offer is 200.00", appErr.Message)

	_, err = svc.Apply(ctx, &domain.ApplyOfferRequest{Code: "NOPE", CartAmount: 500})
	requireAppError(t, err, http.StatusNotFound)

	svc.now = func() time.Time { return t0.Add(8 * 24 * time.Hour) }
	_, err = svc.Apply(ctx, &domain.ApplyOfferRequest{Code: "PCT", CartAmount: 500})
	appErr = requireAppError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Offer has expired", appErr.Message)
}
