package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/internal/service"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Create handles POST /api/orders/create.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.CreateOrderRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	created, err := h.svc.CreateOrder(r.Context(), p.ID, &req)
	if err != nil {
		Error(w, err)
		return
	}

	payload := M{"message": "Order created successfully", "order": created.Order}
	if created.Gateway != nil {
		payload["razorpayOrder"] = created.Gateway
	}
	Success(w, http.StatusOK, payload)
}

// UpdatePayment handles PUT /api/orders/update-payment.
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.UpdatePaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	order, err := h.svc.ConfirmPayment(r.Context(), p, &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Payment status updated successfully", "order": order})
}

// MyOrders handles GET /api/orders/my-orders.
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	orders, err := h.svc.ListByCustomer(r.Context(), p.ID)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"count": len(orders), "orders": orders})
}

// All handles GET /api/orders/all (admin).
func (h *OrderHandler) All(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListAll(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"count": len(orders), "orders": orders})
}

// Get handles GET /api/orders/{orderId}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"order": order})
}

// UpdateStatus handles PUT /api/orders/update-status/{orderId} (admin).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateOrderStatusRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	order, err := h.svc.UpdateOrderStatus(r.Context(), chi.URLParam(r, "orderId"), &req)
	if err != nil {
		Error(w, err)
		return
	}
	Success(w, http.StatusOK, M{"message": "Order status updated", "order": order})
}
