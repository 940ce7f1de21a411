package orders

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// MemoryRepository is an in-process Repository used by tests and tooling.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	itemID int64
	noteID int64
	orders map[int64]*domain.Order
	notes  map[int64][]domain.OrderNote
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[int64]*domain.Order),
		notes:  make(map[int64][]domain.OrderNote),
	}
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	if cp.Items == nil {
		cp.Items = make([]domain.OrderItem, 0)
	}
	return &cp
}

// CreateOrder implements Repository.
func (m *MemoryRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Now()
	order.ID = m.nextID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	for i := range order.Items {
		m.itemID++
		order.Items[i].ID = m.itemID
		order.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

// GetOrderByID implements Repository.
func (m *MemoryRepository) GetOrderByID(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

// ListOrdersByCustomer implements Repository.
func (m *MemoryRepository) ListOrdersByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]domain.Order, 0)
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			list = append(list, *cloneOrder(o))
		}
	}
	slices.SortFunc(list, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return list, nil
}

// UpdateStatus implements Repository.
func (m *MemoryRepository) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()

	if note != "" {
		m.noteID++
		m.notes[id] = append(m.notes[id], domain.OrderNote{
			ID:        m.noteID,
			OrderID:   id,
			Note:      note,
			CreatedAt: o.UpdatedAt,
		})
	}
	return nil
}

// ListNotes implements Repository.
func (m *MemoryRepository) ListNotes(_ context.Context, orderID int64) ([]domain.OrderNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	notes := slices.Clone(m.notes[orderID])
	if notes == nil {
		notes = make([]domain.OrderNote, 0)
	}
	return notes, nil
}
