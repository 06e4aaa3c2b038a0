package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// CartHandler handles /api/cart endpoints.
type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

// Save handles POST /api/cart/save.
func (h *CartHandler) Save(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.SaveCartRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	cart, err := h.svc.Save(r.Context(), p, &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"cart": cart})
}

// Get handles GET /api/cart/{userId}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	cart, err := h.svc.Get(r.Context(), p, chi.URLParam(r, "userId"))
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"cart": cart})
}

// MarkPaid handles POST /api/cart/markPaid.
func (h *CartHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.CartUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	cart, err := h.svc.MarkPaid(r.Context(), p, &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Payment marked as paid", "paymentId": req.PaymentID, "cart": cart})
}

// Count handles GET /api/cart/count/{userId}.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	n, err := h.svc.Count(r.Context(), p, chi.URLParam(r, "userId"))
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"count": n})
}

// Clear handles POST /api/cart/clear.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.CartUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.svc.Clear(r.Context(), p, req.UserID); err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Cart cleared"})
}
