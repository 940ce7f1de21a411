package orders

import (
	"context"

	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// Repository defines the interface for order data operations.
type Repository interface {
	// CreateOrder stores the order and its items atomically.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	// UpdateStatus changes the status and records note in the same transaction.
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, note string) error
	ListNotes(ctx context.Context, orderID int64) ([]domain.OrderNote, error)
}
