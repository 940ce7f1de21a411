// Package postgres provides PostgreSQL implementation of the orders repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the orders.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateOrder inserts the order and its items in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO orders (customer_id, status, billing_email, billing_first_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		order.CustomerID,
		string(order.Status),
		order.BillingEmail,
		order.BillingFirstName,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRow(ctx, itemQuery, order.ID, item.ProductID, item.Name, item.Quantity).Scan(&item.ID); err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetOrderByID retrieves an order with its items in insertion order.
func (r *Repository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, customer_id, status, billing_email, billing_first_name, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orders.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	items, err := r.listItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	if order.Items == nil {
		order.Items = make([]domain.OrderItem, 0)
	}

	return order, nil
}

// ListOrdersByCustomer returns the customer's orders, newest first.
func (r *Repository) ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	query := `
		SELECT id, customer_id, status, billing_email, billing_first_name, created_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	list := make([]domain.Order, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if len(ids) == 0 {
		return list, nil
	}

	items, err := r.listItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Items = items[list[i].ID]
		if list[i].Items == nil {
			list[i].Items = make([]domain.OrderItem, 0)
		}
	}

	return list, nil
}

// UpdateStatus changes the order status and records a note.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, note string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return orders.ErrOrderNotFound
	}

	if note != "" {
		if _, err := tx.Exec(ctx, `INSERT INTO order_notes (order_id, note) VALUES ($1, $2)`, id, note); err != nil {
			return fmt.Errorf("create order note: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListNotes returns the notes of an order, oldest first.
func (r *Repository) ListNotes(ctx context.Context, orderID int64) ([]domain.OrderNote, error) {
	query := `
		SELECT id, order_id, note, created_at
		FROM order_notes
		WHERE order_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order notes: %w", err)
	}
	defer rows.Close()

	notes := make([]domain.OrderNote, 0)
	for rows.Next() {
		var n domain.OrderNote
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Note, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order notes: %w", err)
	}
	return notes, nil
}

func (r *Repository) listItems(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&status,
		&order.BillingEmail,
		&order.BillingFirstName,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = domain.OrderStatus(status)
	return &order, nil
}
