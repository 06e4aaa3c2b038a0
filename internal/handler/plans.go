package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// PlansHandler serves the subscription plan catalog.
type PlansHandler struct {
	svc *service.SubscriptionService
}

// NewPlansHandler creates a new PlansHandler.
func NewPlansHandler(svc *service.SubscriptionService) *PlansHandler {
	return &PlansHandler{svc: svc}
}

// List handles GET /api/subscriptions.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListActivePlans(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"subscriptions": plans})
}

// Create handles POST /api/subscriptions.
func (h *PlansHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.PlanRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	plan, err := h.svc.CreatePlan(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusCreated, M{"subscription": plan})
}

// Update handles PUT /api/subscriptions/{id}.
func (h *PlansHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.PlanRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	plan, err := h.svc.UpdatePlan(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"subscription": plan})
}

// Delete handles DELETE /api/subscriptions/{id}.
func (h *PlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Subscription deleted successfully"})
}
