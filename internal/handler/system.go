package handler

import (
	"net/http"

	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// SystemHandler provides endpoints for app-wide configuration.
type SystemHandler struct {
	svc *service.SystemService
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(svc *service.SystemService) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// GetConfig handles GET /api/config.
func (h *SystemHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.GetEmailJSConfig(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"config": cfg})
}

// UpdateConfig handles POST /api/config (admin).
func (h *SystemHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailJSConfig
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	cfg, err := h.svc.UpdateEmailJSConfig(r.Context(), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"config": cfg})
}
