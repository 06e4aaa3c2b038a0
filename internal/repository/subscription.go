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

const planColumns = `id, name, price, duration_days, cloth_limit, benefits, active, created_at, updated_at`

// PlanRepository handles the subscription catalog.
type PlanRepository struct {
	db *pgxpool.Pool
}

func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	var p domain.Plan
	var benefits []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.ClothLimit,
		&benefits, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(benefits, &p.Benefits); err != nil {
		return nil, fmt.Errorf("failed to decode plan benefits: %w", err)
	}
	return &p, nil
}

func (r *PlanRepository) Create(ctx context.Context, p *domain.Plan) error {
	benefits, err := json.Marshal(nonNil(p.Benefits))
	if err != nil {
		return fmt.Errorf("failed to encode plan benefits: %w", err)
	}
	query := `
		INSERT INTO subscription_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.Exec(ctx, query,
		p.ID, p.Name, p.Price, p.DurationDays, p.ClothLimit, benefits, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (*domain.Plan, error) {
	p, err := scanPlan(r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return p, nil
}

func (r *PlanRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE active ORDER BY price ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *PlanRepository) Update(ctx context.Context, p *domain.Plan) (bool, error) {
	benefits, err := json.Marshal(nonNil(p.Benefits))
	if err != nil {
		return false, fmt.Errorf("failed to encode plan benefits: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE subscription_plans
		SET name = $2, price = $3, duration_days = $4, cloth_limit = $5, benefits = $6, active = $7, updated_at = $8
		WHERE id = $1
	`, p.ID, p.Name, p.Price, p.DurationDays, p.ClothLimit, benefits, p.Active, p.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to update plan: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PlanRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete plan: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const userSubscriptionColumns = `id, user_id, plan_id, plan_name, price, duration_days, cloth_limit, cloth_used,
	status, active, start_date, end_date, contact, notes, created_at, updated_at`

// UserSubscriptionRepository handles purchased subscription instances.
type UserSubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewUserSubscriptionRepository(db *pgxpool.Pool) *UserSubscriptionRepository {
	return &UserSubscriptionRepository{db: db}
}

func scanUserSubscription(row pgx.Row, s *domain.UserSubscription) error {
	var contact []byte
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.PlanName, &s.Price, &s.DurationDays,
		&s.ClothLimit, &s.ClothUsed, &s.Status, &s.Active, &s.StartDate, &s.EndDate,
		&contact, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	s.Contact = nil
	if len(contact) > 0 {
		if err := json.Unmarshal(contact, &s.Contact); err != nil {
			return fmt.Errorf("failed to decode subscription contact: %w", err)
		}
	}
	return nil
}

func (r *UserSubscriptionRepository) Create(ctx context.Context, s *domain.UserSubscription) error {
	contact, err := marshalOptional(s.Contact)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO user_subscriptions (` + userSubscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.db.Exec(ctx, query,
		s.ID, s.UserID, s.PlanID, s.PlanName, s.Price, s.DurationDays, s.ClothLimit, s.ClothUsed,
		s.Status, s.Active, s.StartDate, s.EndDate, contact, s.Notes, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user subscription: %w", err)
	}
	return nil
}

func (r *UserSubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.UserSubscription, error) {
	var s domain.UserSubscription
	err := scanUserSubscription(r.db.QueryRow(ctx, `SELECT `+userSubscriptionColumns+` FROM user_subscriptions WHERE id = $1`, id), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user subscription: %w", err)
	}
	return &s, nil
}

func (r *UserSubscriptionRepository) list(ctx context.Context, where string, args ...any) ([]*domain.UserSubscription, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userSubscriptionColumns+` FROM user_subscriptions `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.UserSubscription
	for rows.Next() {
		var s domain.UserSubscription
		if err := scanUserSubscription(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan user subscription: %w", err)
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

// ListAll returns every instance, newest first.
func (r *UserSubscriptionRepository) ListAll(ctx context.Context) ([]*domain.UserSubscription, error) {
	return r.list(ctx, "")
}

// ListByUser returns one user's instances, newest first.
func (r *UserSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.UserSubscription, error) {
	return r.list(ctx, "WHERE user_id = $1", userID)
}

// Mutate applies fn to the instance under a row lock and writes the mutable fields back.
func (r *UserSubscriptionRepository) Mutate(ctx context.Context, id string, fn func(*domain.UserSubscription) error) (*domain.UserSubscription, error) {
	var s domain.UserSubscription
	found, err := lockAndUpdate(ctx, r.db,
		func(row pgx.Row) error { return scanUserSubscription(row, &s) },
		`SELECT `+userSubscriptionColumns+` FROM user_subscriptions WHERE id = $1`, id,
		func(tx pgx.Tx) error {
			if err := fn(&s); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `
				UPDATE user_subscriptions
				SET cloth_used = $2, status = $3, active = $4, notes = $5, updated_at = $6
				WHERE id = $1
			`, s.ID, s.ClothUsed, s.Status, s.Active, s.Notes, s.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to update user subscription: %w", err)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &s, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}
