package handler

import (
	"net/http"

	"github.com/tailorone/backend/internal/service"
)

type AdminHandler struct {
	system *service.SystemService
}

func NewAdminHandler(system *service.SystemService) *AdminHandler {
	return &AdminHandler{system: system}
}

// GetStats handles GET /api/admin/stats.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.system.Stats(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{
		"users":               stats.Users,
		"orders":              stats.Orders,
		"activeSubscriptions": stats.ActiveSubscriptions,
	})
}
