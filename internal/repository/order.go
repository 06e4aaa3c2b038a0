package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tailorone/backend/internal/domain"
)

const orderColumns = `id, customer_id, customer_phone, address, services, subtotal, offer_code, discount,
	total_amount, payment_mode, payment_status, order_status, gateway_order_id, pickup_time,
	delivery_within, delivery_time, tracking_id, notes, admin_remarks, created_at, updated_at`

// OrderRepository handles database operations for orders.
type OrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row pgx.Row, o *domain.Order) error {
	var address, services []byte
	if err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerPhone, &address, &services, &o.Subtotal,
		&o.OfferCode, &o.Discount, &o.TotalAmount, &o.PaymentMode, &o.PaymentStatus, &o.OrderStatus,
		&o.GatewayOrderID, &o.PickupTime, &o.DeliveryWithin, &o.DeliveryTime, &o.TrackingID,
		&o.Notes, &o.AdminRemarks, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	if err := json.Unmarshal(address, &o.Address); err != nil {
		return fmt.Errorf("failed to decode order address: %w", err)
	}
	if err := json.Unmarshal(services, &o.Services); err != nil {
		return fmt.Errorf("failed to decode order services: %w", err)
	}
	return nil
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	address, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("failed to encode order address: %w", err)
	}
	services, err := json.Marshal(nonNil(o.Services))
	if err != nil {
		return fmt.Errorf("failed to encode order services: %w", err)
	}
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err = r.db.Exec(ctx, query,
		o.ID, o.CustomerID, o.CustomerPhone, address, services, o.Subtotal, o.OfferCode, o.Discount,
		o.TotalAmount, o.PaymentMode, o.PaymentStatus, o.OrderStatus, o.GatewayOrderID, o.PickupTime,
		o.DeliveryWithin, o.DeliveryTime, o.TrackingID, o.Notes, o.AdminRemarks, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) findOne(ctx context.Context, where, arg string) (*domain.Order, error) {
	var o domain.Order
	err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &o, nil
}

// FindByID returns an order by ID.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByGatewayOrderID returns the order pre-authorised under the given gateway order.
func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Order, error) {
	return r.findOne(ctx, "gateway_order_id = $1", gatewayOrderID)
}

func (r *OrderRepository) list(ctx context.Context, where string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

// ListByCustomer returns a customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return r.list(ctx, "WHERE customer_id = $1", customerID)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, "")
}

// Mutate applies fn to the order under a row lock and writes the mutable fields back.
func (r *OrderRepository) Mutate(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error) {
	var o domain.Order
	found, err := lockAndUpdate(ctx, r.db,
		func(row pgx.Row) error { return scanOrder(row, &o) },
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
		func(tx pgx.Tx) error {
			if err := fn(&o); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `
				UPDATE orders
				SET payment_status = $2, order_status = $3, delivery_time = $4, admin_remarks = $5, updated_at = $6
				WHERE id = $1
			`, o.ID, o.PaymentStatus, o.OrderStatus, o.DeliveryTime, o.AdminRemarks, o.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to update order: %w", err)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &o, nil
}

// Count returns the number of orders.
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}
