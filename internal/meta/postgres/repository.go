// Package postgres provides PostgreSQL implementation of the metadata store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/shop-subscriptions/internal/meta"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements meta.Store using the entity_meta table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL metadata repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get returns the value stored under key, or meta.ErrNotFound.
func (r *Repository) Get(ctx context.Context, entity meta.EntityType, id int64, key string) (string, error) {
	query := `
		SELECT meta_value
		FROM entity_meta
		WHERE entity_type = $1 AND entity_id = $2 AND meta_key = $3
	`
	var value string
	err := r.db.QueryRow(ctx, query, entity, id, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", meta.ErrNotFound
		}
		return "", fmt.Errorf("get meta %s/%d/%s: %w", entity, id, key, err)
	}
	return value, nil
}

// Set inserts or replaces the value stored under key.
func (r *Repository) Set(ctx context.Context, entity meta.EntityType, id int64, key, value string) error {
	query := `
		INSERT INTO entity_meta (entity_type, entity_id, meta_key, meta_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_type, entity_id, meta_key)
		DO UPDATE SET meta_value = EXCLUDED.meta_value, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, entity, id, key, value); err != nil {
		return fmt.Errorf("set meta %s/%d/%s: %w", entity, id, key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *Repository) Delete(ctx context.Context, entity meta.EntityType, id int64, key string) error {
	query := `DELETE FROM entity_meta WHERE entity_type = $1 AND entity_id = $2 AND meta_key = $3`
	if _, err := r.db.Exec(ctx, query, entity, id, key); err != nil {
		return fmt.Errorf("delete meta %s/%d/%s: %w", entity, id, key, err)
	}
	return nil
}
