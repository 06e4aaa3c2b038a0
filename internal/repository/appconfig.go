package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfigRepository handles the app_config key/value table. Values are
// opaque strings; callers encrypt them before storage.
type ConfigRepository struct {
	db *pgxpool.Pool
}

// NewConfigRepository creates a new ConfigRepository.
func NewConfigRepository(db *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Get retrieves a value by key. A missing key yields "".
func (r *ConfigRepository) Get(ctx context.Context, key string) (string, error) {
	var data string
	err := r.db.QueryRow(ctx, `SELECT data FROM app_config WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read app_config entry: %w", err)
	}
	return data, nil
}

// Set inserts or updates a value.
func (r *ConfigRepository) Set(ctx context.Context, key, data string) error {
	query := `
		INSERT INTO app_config (key, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, key, data); err != nil {
		return fmt.Errorf("failed to write app_config entry: %w", err)
	}
	return nil
}
