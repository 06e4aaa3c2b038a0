package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// OfferHandler handles promotional offer endpoints.
type OfferHandler struct {
	svc *service.OfferService
}

func NewOfferHandler(svc *service.OfferService) *OfferHandler {
	return &OfferHandler{svc: svc}
}

// List handles GET /api/offers.
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.ListActive(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"offers": offers})
}

// GetByCode handles GET /api/offers/code/{code}.
func (h *OfferHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	offer, err := h.svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"offer": offer})
}

// Apply handles POST /api/offers/apply.
func (h *OfferHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req domain.ApplyOfferRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	res, err := h.svc.Apply(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"code": res.Code, "discount": res.Discount, "totalAmount": res.TotalAmount})
}

// Create handles POST /api/offers (admin).
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.OfferRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	offer, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusCreated, M{"offer": offer})
}

// Update handles PUT /api/offers/{id} (admin).
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.OfferRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	offer, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"offer": offer})
}

// Delete handles DELETE /api/offers/{id} (admin).
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Offer deleted successfully"})
}
