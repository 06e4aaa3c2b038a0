package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailorone/backend/internal/contextkeys"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
	"github.com/tailorone/backend/internal/service/servicetest"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestSuccessMergesPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, M{"order": M{"id": "o1"}, "message": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["message"])
	assert.Equal(t, "o1", body["order"].(map[string]interface{})["id"])
}

func TestErrorMapsAppErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.ErrValidation("email is required"), http.StatusBadRequest, "email is required"},
		{domain.ErrConflict("Offer code already exists"), http.StatusBadRequest, "Offer code already exists"},
		{domain.ErrUnauthorized("invalid token"), http.StatusUnauthorized, "invalid token"},
		{domain.ErrForbidden("Access denied"), http.StatusForbidden, "Access denied"},
		{domain.ErrNotFound("Order not found"), http.StatusNotFound, "Order not found"},
		{domain.ErrUpstream("Failed to create payment order", errors.New("timeout")), http.StatusInternalServerError, "Failed to create payment order"},
		{fmt.Errorf("wrapped: %w", domain.ErrNotFound("Plan not found")), http.StatusNotFound, "Plan not found"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.msg, body["message"])
		})
	}
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var v struct{}
	err := DecodeJSON(req, &v)

	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestCallerRequiresPrincipal(t *testing.T) {
	h := NewAddressHandler(service.NewAddressService(servicetest.NewAddresses()))

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/address", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/address", nil)
	req = req.WithContext(contextkeys.WithPrincipal(req.Context(), domain.Principal{ID: "u1", Role: domain.RoleCustomer}))
	rec = httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestOfferGetByCodeUsesURLParam(t *testing.T) {
	h := NewOfferHandler(service.NewOfferService(servicetest.NewOffers()))
	r := chi.NewRouter()
	r.Get("/api/offers/code/{code}", h.GetByCode)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/offers/code/NOPE", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}
