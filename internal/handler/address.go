package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// AddressHandler handles the caller's saved addresses.
type AddressHandler struct {
	svc *service.AddressService
}

func NewAddressHandler(svc *service.AddressService) *AddressHandler {
	return &AddressHandler{svc: svc}
}

// Add handles POST /api/address.
func (h *AddressHandler) Add(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.AddressRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	addr, err := h.svc.Add(r.Context(), p.ID, &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusCreated, M{"message": "Address added successfully", "address": addr})
}

// List handles GET /api/address.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	addrs, err := h.svc.List(r.Context(), p.ID)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"addresses": addrs})
}

// Delete handles DELETE /api/address/{id}.
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), p.ID, chi.URLParam(r, "id")); err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Address deleted successfully"})
}
