package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// SubscriptionHandler serves purchased subscription instances.
type SubscriptionHandler struct {
	svc *service.SubscriptionService
}

func NewSubscriptionHandler(svc *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// Buy handles POST /api/subscriptions/buy.
func (h *SubscriptionHandler) Buy(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.PurchaseRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	sub, err := h.svc.Purchase(r.Context(), p, &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusCreated, M{"userSubscription": sub})
}

// ListByUser handles GET /api/subscriptions/user/{userId}.
func (h *SubscriptionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	subs, err := h.svc.ListByUser(r.Context(), p, chi.URLParam(r, "userId"))
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"subscriptions": subs})
}

// RecordUsage handles PUT /api/subscriptions/usage/{id}.
func (h *SubscriptionHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.UsageRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	sub, err := h.svc.RecordUsage(r.Context(), p, chi.URLParam(r, "id"), req.Used)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"userSubscription": sub})
}

// Get handles GET /api/subscriptions/instances/{id}.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	sub, err := h.svc.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"userSubscription": sub})
}

// ListAll handles GET /api/subscriptions/instances (admin).
func (h *SubscriptionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListAll(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"count": len(subs), "subscriptions": subs})
}

// ChangeStatus handles PUT /api/subscriptions/instances/{id}/status (admin).
func (h *SubscriptionHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscriptionStatusRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	sub, err := h.svc.ChangeStatus(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"userSubscription": sub})
}

// Stats handles GET /api/subscriptions/stats (admin).
func (h *SubscriptionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"stats": stats})
}
