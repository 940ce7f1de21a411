package catalog

import (
	"context"

	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// Repository defines the interface for product data operations.
type Repository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
}
