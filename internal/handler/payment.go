package handler

import (
	"net/http"

	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// PaymentHandler handles checkout confirmation and the public gateway key.
type PaymentHandler struct {
	orders *service.OrderService
	system *service.SystemService
}

func NewPaymentHandler(orders *service.OrderService, system *service.SystemService) *PaymentHandler {
	return &PaymentHandler{orders: orders, system: system}
}

// Verify handles POST /api/payment/verify.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.VerifyPaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	order, err := h.orders.ConfirmGatewayPayment(r.Context(), p, &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Payment verified", "order": order})
}

// GetKey handles GET /api/getkey.
func (h *PaymentHandler) GetKey(w http.ResponseWriter, r *http.Request) {
	Success(w, http.StatusOK, M{"keyId": h.system.GatewayKeyID()})
}
