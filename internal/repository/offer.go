package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tailorone/backend/internal/domain"
)

const offerColumns = `id, title, code, discount, discount_percent, min_amount, description, valid_till, active`

// OfferRepository handles promotional offers. Every write checks the
// discount rule of domain.Offer before touching the table.
type OfferRepository struct {
	db *pgxpool.Pool
}

func NewOfferRepository(db *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{db: db}
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var o domain.Offer
	if err := row.Scan(&o.ID, &o.Title, &o.Code, &o.Discount, &o.DiscountPercent,
		&o.MinAmount, &o.Description, &o.ValidTill, &o.Active); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepository) Create(ctx context.Context, o *domain.Offer) error {
	if err := o.Validate(); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO offers (`+offerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, o.ID, o.Title, o.Code, o.Discount, o.DiscountPercent, o.MinAmount, o.Description, o.ValidTill, o.Active)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *OfferRepository) findOne(ctx context.Context, where, arg string) (*domain.Offer, error) {
	o, err := scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	return o, nil
}

func (r *OfferRepository) FindByID(ctx context.Context, id string) (*domain.Offer, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *OfferRepository) FindActiveByCode(ctx context.Context, code string) (*domain.Offer, error) {
	return r.findOne(ctx, "code = $1 AND active", code)
}

func (r *OfferRepository) ListActive(ctx context.Context) ([]*domain.Offer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+` FROM offers WHERE active ORDER BY valid_till ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// CodeTaken reports whether another offer already uses code.
func (r *OfferRepository) CodeTaken(ctx context.Context, code, excludeID string) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM offers WHERE code = $1 AND id <> $2)`, code, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check offer code: %w", err)
	}
	return taken, nil
}

func (r *OfferRepository) Update(ctx context.Context, o *domain.Offer) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE offers
		SET title = $2, code = $3, discount = $4, discount_percent = $5, min_amount = $6,
		    description = $7, valid_till = $8, active = $9
		WHERE id = $1
	`, o.ID, o.Title, o.Code, o.Discount, o.DiscountPercent, o.MinAmount, o.Description, o.ValidTill, o.Active)
	if err != nil {
		return false, fmt.Errorf("failed to update offer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OfferRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete offer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
