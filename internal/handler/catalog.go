package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// CatalogHandler handles /api/services.
type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.List(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"services": services})
}

func (h *CatalogHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req domain.ServiceRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	svc, err := h.svc.Add(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusCreated, M{"message": "Service added successfully", "service": svc})
}

func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.ServiceRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	svc, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Service updated successfully", "service": svc})
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Service deleted successfully"})
}
