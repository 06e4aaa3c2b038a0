package handler

import (
	"io"
	"net/http"

	"github.com/tailorone/backend/internal/service"
)

// maxWebhookBody caps the notification payload read from the gateway.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	orders *service.OrderService
}

func NewWebhookHandler(orders *service.OrderService) *WebhookHandler {
	return &WebhookHandler{orders: orders}
}

// HandleRazorpay handles POST /api/payment/webhook. The raw body is
// verified against X-Razorpay-Signature before anything is parsed.
func (h *WebhookHandler) HandleRazorpay(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		Fail(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	if err := h.orders.HandleGatewayWebhook(r.Context(), body, r.Header.Get("X-Razorpay-Signature")); err != nil {
		Error(w, err)
		return
	}

	Success(w, http.StatusOK, nil)
}
