package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// MemoryRepository is an in-process Repository used by tests and tooling.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*domain.Product
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[int64]*domain.Product)}
}

// CreateProduct implements Repository.
func (m *MemoryRepository) CreateProduct(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Now()
	product.ID = m.nextID
	product.CreatedAt = now
	product.UpdatedAt = now
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

// GetProductByID implements Repository.
func (m *MemoryRepository) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// DeleteProduct removes a product. Metadata attached to it is left alone.
func (m *MemoryRepository) DeleteProduct(_ context.Context, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}
