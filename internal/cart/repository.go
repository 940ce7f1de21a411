package cart

import (
	"context"

	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// Repository defines the interface for cart storage.
type Repository interface {
	ListLines(ctx context.Context, customerID string) ([]domain.CartLine, error)
	AddLine(ctx context.Context, customerID string, line *domain.CartLine) error
	RemoveLines(ctx context.Context, customerID string, keys []string) (int64, error)
	Clear(ctx context.Context, customerID string) error
}
