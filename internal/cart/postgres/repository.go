// Package postgres provides PostgreSQL implementation of the cart repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the cart.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListLines returns the cart lines in the order they were added.
func (r *Repository) ListLines(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	query := `
		SELECT line_key, product_id, quantity, created_at
		FROM cart_lines
		WHERE customer_id = $1
		ORDER BY created_at, line_key
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.Key, &line.ProductID, &line.Quantity, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return lines, nil
}

// AddLine appends a line to the customer's cart.
func (r *Repository) AddLine(ctx context.Context, customerID string, line *domain.CartLine) error {
	query := `
		INSERT INTO cart_lines (line_key, customer_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, line.Key, customerID, line.ProductID, line.Quantity).
		Scan(&line.CreatedAt)
	if err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

// RemoveLines deletes the given lines of the customer's cart.
func (r *Repository) RemoveLines(ctx context.Context, customerID string, keys []string) (int64, error) {
	query := `DELETE FROM cart_lines WHERE customer_id = $1 AND line_key = ANY($2::uuid[])`
	tag, err := r.db.Exec(ctx, query, customerID, keys)
	if err != nil {
		return 0, fmt.Errorf("remove cart lines: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Clear deletes every line of the customer's cart.
func (r *Repository) Clear(ctx context.Context, customerID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE customer_id = $1`, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
