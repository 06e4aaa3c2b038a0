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

// CartRepository stores one cart per user.
type CartRepository struct {
	db *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	var items []byte
	err := r.db.QueryRow(ctx,
		`SELECT user_id, items, total, payment_status, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&c.UserID, &items, &c.Total, &c.PaymentStatus, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("failed to decode cart items: %w", err)
	}
	return &c, nil
}

// Save upserts the cart keyed by its owner.
func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	items, err := json.Marshal(nonNil(c.Items))
	if err != nil {
		return fmt.Errorf("failed to encode cart items: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO carts (user_id, items, total, payment_status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, total = EXCLUDED.total,
		    payment_status = EXCLUDED.payment_status, updated_at = EXCLUDED.updated_at
	`, c.UserID, items, c.Total, c.PaymentStatus, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// AddressRepository stores address-book entries.
type AddressRepository struct {
	db *pgxpool.Pool
}

func NewAddressRepository(db *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO addresses (id, user_id, label, address_line, city, state, pincode, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.UserID, a.Label, a.AddressLine, a.City, a.State, a.Pincode, a.Phone)
	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, label, address_line, city, state, pincode, phone
		FROM addresses WHERE user_id = $1 ORDER BY label, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.AddressLine, &a.City, &a.State, &a.Pincode, &a.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// DeleteOwned removes the address only if it belongs to userID.
func (r *AddressRepository) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete address: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CatalogRepository stores the services offered.
type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Create(ctx context.Context, s *domain.Service) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO services (id, name, description, price, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.Name, s.Description, s.Price, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// List returns every service, newest first.
func (r *CatalogRepository) List(ctx context.Context) ([]*domain.Service, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, price, created_at FROM services ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var out []*domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) Update(ctx context.Context, s *domain.Service) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE services SET name = $2, description = $3, price = $4 WHERE id = $1`,
		s.ID, s.Name, s.Description, s.Price)
	if err != nil {
		return false, fmt.Errorf("failed to update service: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CatalogRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete service: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
