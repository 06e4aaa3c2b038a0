package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/tailorone/backend/internal/domain"
	"github.com/tailorone/backend/pkg/payment"
)

// pickupLayouts are the accepted pickupTime formats, tried in order.
var pickupLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

// CreatedOrder is a stored order plus the gateway pre-authorisation, if any.
type CreatedOrder struct {
	Order   *domain.Order         `json:"order"`
	Gateway *payment.GatewayOrder `json:"razorpayOrder,omitempty"`
}

// OrderService manages order creation, payment confirmation and status.
type OrderService struct {
	orders   OrderStore
	gateway  payment.Gateway
	events   EventPublisher
	currency string
	validate *validator.Validate
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders OrderStore, gateway payment.Gateway, events EventPublisher, currency string) *OrderService {
	if events == nil {
		events = NoopPublisher{}
	}
	if currency == "" {
		currency = "INR"
	}
	return &OrderService{
		orders:   orders,
		gateway:  gateway,
		events:   events,
		currency: currency,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (s *OrderService) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// CreateOrder validates the payload, pre-authorises gateway payments and
// stores the order. Nothing is written when validation or the gateway fails.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, req *domain.CreateOrderRequest) (*CreatedOrder, error) {
	pickup, err := parsePickupTime(req.PickupTime)
	if err != nil {
		return nil, err
	}
	address, err := validateOrderAddress(req.Address)
	if err != nil {
		return nil, err
	}
	items, computed, err := validateOrderItems(req.Services)
	if err != nil {
		return nil, err
	}

	mode := req.PaymentMode
	if mode == "" {
		mode = domain.PaymentModeGateway
	}
	if mode != domain.PaymentModeGateway && mode != domain.PaymentModeCOD {
		return nil, domain.ErrValidation(fmt.Sprintf("paymentMode must be one of [%s %s]", domain.PaymentModeGateway, domain.PaymentModeCOD))
	}
	within := req.DeliveryWithin
	if within == "" {
		within = domain.DefaultDeliveryWithin
	}
	if !domain.ValidDeliveryWithin(within) {
		return nil, domain.ErrValidation("deliveryWithin must be one of [12 hours 24 hours 48 hours 72 hours]")
	}
	if req.Discount < 0 || req.Subtotal < 0 || req.TotalAmount < 0 {
		return nil, domain.ErrValidation("amounts must not be negative")
	}

	subtotal := req.Subtotal
	if subtotal == 0 {
		subtotal = computed
	}
	total := req.TotalAmount
	if total == 0 {
		t, _ := decimal.NewFromFloat(subtotal).Sub(decimal.NewFromFloat(req.Discount)).Float64()
		total = max(t, 0)
	}

	now := s.clock()
	order := &domain.Order{
		ID:             domain.NewID(),
		CustomerID:     customerID,
		CustomerPhone:  strings.TrimSpace(req.CustomerPhone),
		Address:        address,
		Services:       items,
		Subtotal:       subtotal,
		Discount:       req.Discount,
		TotalAmount:    total,
		PaymentMode:    mode,
		PaymentStatus:  domain.PaymentUnpaid,
		OrderStatus:    domain.OrderPending,
		PickupTime:     pickup,
		DeliveryWithin: within,
		TrackingID:     domain.NewTrackingID(),
		Notes:          sanitizeText(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if code := strings.TrimSpace(req.OfferCode); code != "" {
		order.OfferCode = &code
	}

	var gw *payment.GatewayOrder
	if mode == domain.PaymentModeGateway {
		amount := payment.ToMinorUnits(total)
		if amount <= 0 {
			return nil, domain.ErrValidation("totalAmount must be greater than 0 for online payment")
		}
		gw, err = s.gateway.CreateOrder(ctx, amount, s.currency, fmt.Sprintf("receipt_%d", now.UnixMilli()))
		if err != nil {
			slog.Error("gateway order failed", "customer_id", customerID, "error", err)
			return nil, domain.ErrUpstream("Failed to create payment order", err)
		}
		order.GatewayOrderID = &gw.ID
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// The gateway order, if any, is left orphaned; it expires unpaid.
		return nil, domain.ErrInternal("failed to create order", err)
	}

	slog.Info("order created", "order_id", order.ID, "tracking_id", order.TrackingID, "payment_mode", mode)
	publishEvent(ctx, s.events, domain.EventOrderCreated, domain.NewOrderEvent(order, now))
	return &CreatedOrder{Order: order, Gateway: gw}, nil
}

func parsePickupTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.ErrValidation("pickupTime is required")
	}
	for _, layout := range pickupLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.ErrValidation("pickupTime is not a valid date")
}

func validateOrderAddress(a *domain.OrderAddress) (domain.OrderAddress, error) {
	if a == nil {
		return domain.OrderAddress{}, domain.ErrValidation("address is required")
	}
	out := domain.OrderAddress{
		HouseNo:  sanitizeText(a.HouseNo),
		Street:   sanitizeText(a.Street),
		Landmark: sanitizeText(a.Landmark),
		Line1:    sanitizeText(a.Line1),
		City:     sanitizeText(a.City),
		Pincode:  strings.TrimSpace(a.Pincode),
	}
	switch {
	case out.Line1 == "":
		return out, domain.ErrValidation("address.line1 is required")
	case out.City == "":
		return out, domain.ErrValidation("address.city is required")
	case out.Pincode == "":
		return out, domain.ErrValidation("address.pincode is required")
	}
	return out, nil
}

// validateOrderItems checks every line and returns the cleaned items and their sum.
func validateOrderItems(items []domain.OrderItem) ([]domain.OrderItem, float64, error) {
	if len(items) == 0 {
		return nil, 0, domain.ErrValidation("services must contain at least one item")
	}
	out := make([]domain.OrderItem, len(items))
	sum := decimal.Zero
	for i, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		switch {
		case it.Name == "":
			return nil, 0, domain.ErrValidation(fmt.Sprintf("services[%d].name is required", i))
		case it.Qty <= 0:
			return nil, 0, domain.ErrValidation(fmt.Sprintf("services[%d].qty must be greater than 0", i))
		case it.Price <= 0:
			return nil, 0, domain.ErrValidation(fmt.Sprintf("services[%d].price must be greater than 0", i))
		}
		out[i] = it
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	total, _ := sum.Float64()
	return out, total, nil
}

// ConfirmPayment records a payment outcome reported by the order's owner or an admin.
func (s *OrderService) ConfirmPayment(ctx context.Context, caller domain.Principal, req *domain.UpdatePaymentRequest) (*domain.Order, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if !domain.ValidID(req.OrderID) {
		return nil, domain.ErrNotFound("Order not found")
	}
	return s.setPaymentStatus(ctx, req.OrderID, req.PaymentStatus, func(o *domain.Order) error {
		if o.CustomerID != caller.ID && !caller.IsAdmin() {
			return domain.ErrForbidden("not your order")
		}
		return nil
	})
}

// ConfirmGatewayPayment marks the order paid after verifying the checkout signature.
func (s *OrderService) ConfirmGatewayPayment(ctx context.Context, caller domain.Principal, req *domain.VerifyPaymentRequest) (*domain.Order, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if !s.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
		return nil, domain.ErrBadRequest("Invalid payment signature")
	}
	o, err := s.orders.FindByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, domain.ErrInternal("failed to find order", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound("Order not found")
	}
	return s.settleFromGateway(ctx, o.ID, func(o *domain.Order) error {
		if o.CustomerID != caller.ID && !caller.IsAdmin() {
			return domain.ErrForbidden("not your order")
		}
		return nil
	})
}

type gatewayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleGatewayWebhook applies a signed gateway notification. Events other
// than order.paid and payment.captured are acknowledged and ignored.
func (s *OrderService) HandleGatewayWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return domain.ErrUnauthorized("invalid webhook signature")
	}

	var hook gatewayWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return domain.ErrBadRequest("invalid webhook payload")
	}

	var gatewayOrderID string
	switch hook.Event {
	case "order.paid":
		gatewayOrderID = hook.Payload.Order.Entity.ID
	case "payment.captured":
		gatewayOrderID = hook.Payload.Payment.Entity.OrderID
	default:
		slog.Debug("ignoring gateway event", "event", hook.Event)
		return nil
	}
	if gatewayOrderID == "" {
		return domain.ErrBadRequest("webhook payload missing order id")
	}

	o, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return domain.ErrInternal("failed to find order", err)
	}
	if o == nil {
		slog.Warn("webhook for unknown gateway order", "gateway_order_id", gatewayOrderID, "event", hook.Event)
		return nil
	}
	_, err = s.settleFromGateway(ctx, o.ID, nil)
	return err
}

// errAlreadySettled aborts a gateway settlement for an order that is already Paid.
var errAlreadySettled = errors.New("order already paid")

// settleFromGateway marks an order Paid on behalf of the gateway. The gateway
// reports one capture several times (checkout callback, order.paid,
// payment.captured, retries), so only the first report moves the order to
// Confirmed; later ones leave it untouched.
func (s *OrderService) settleFromGateway(ctx context.Context, id string, check func(*domain.Order) error) (*domain.Order, error) {
	o, err := s.setPaymentStatus(ctx, id, domain.PaymentPaid, func(o *domain.Order) error {
		if check != nil {
			if err := check(o); err != nil {
				return err
			}
		}
		if o.PaymentStatus == domain.PaymentPaid {
			return errAlreadySettled
		}
		return nil
	})
	if !errors.Is(err, errAlreadySettled) {
		return o, err
	}

	slog.Debug("duplicate gateway settlement ignored", "order_id", id)
	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find order", err)
	}
	if current == nil {
		return nil, domain.ErrNotFound("Order not found")
	}
	return current, nil
}

// setPaymentStatus is the single write path for payment state. Paid forces
// the order to Confirmed whatever its previous status; Unpaid leaves the
// order status alone. ConfirmPayment calls it directly; gateway reports go
// through settleFromGateway.
func (s *OrderService) setPaymentStatus(ctx context.Context, id, status string, check func(*domain.Order) error) (*domain.Order, error) {
	now := s.clock()
	o, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		if check != nil {
			if err := check(o); err != nil {
				return err
			}
		}
		o.PaymentStatus = status
		if status == domain.PaymentPaid {
			o.OrderStatus = domain.OrderConfirmed
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		if _, ok := domain.AsAppError(err); ok || errors.Is(err, errAlreadySettled) {
			return nil, err
		}
		return nil, domain.ErrInternal("failed to update payment status", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound("Order not found")
	}

	slog.Info("order payment updated", "order_id", id, "payment_status", status, "order_status", o.OrderStatus)
	publishEvent(ctx, s.events, domain.EventOrderPaymentUpdated, domain.NewOrderEvent(o, now))
	return o, nil
}

// UpdateOrderStatus overwrites the order status (admin). No ordering between
// statuses is enforced.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, req *domain.UpdateOrderStatusRequest) (*domain.Order, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("Order not found")
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	now := s.clock()
	o, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		o.OrderStatus = req.OrderStatus
		if req.DeliveryTime != nil {
			t := req.DeliveryTime.UTC()
			o.DeliveryTime = &t
		}
		if req.AdminRemarks != nil {
			o.AdminRemarks = sanitizeText(*req.AdminRemarks)
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, domain.ErrInternal("failed to update order status", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound("Order not found")
	}

	slog.Info("order status updated", "order_id", id, "order_status", o.OrderStatus)
	publishEvent(ctx, s.events, domain.EventOrderStatusUpdated, domain.NewOrderEvent(o, now))
	return o, nil
}

// GetByID returns any order to any authenticated caller.
// TODO: restrict to the owning customer and admins.
func (s *OrderService) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrNotFound("Order not found")
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find order", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound("Order not found")
	}
	return o, nil
}

// ListByCustomer returns a customer's orders, newest first.
func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list orders", err)
	}
	return nonNilSlice(orders), nil
}

// ListAll returns every order, newest first (admin).
func (s *OrderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list orders", err)
	}
	return nonNilSlice(orders), nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
