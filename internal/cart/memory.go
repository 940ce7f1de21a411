package cart

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// MemoryRepository is an in-process Repository used by tests and tooling.
type MemoryRepository struct {
	mu    sync.Mutex
	lines map[string][]domain.CartLine
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{lines: make(map[string][]domain.CartLine)}
}

// ListLines implements Repository.
func (m *MemoryRepository) ListLines(_ context.Context, customerID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := slices.Clone(m.lines[customerID])
	if lines == nil {
		lines = make([]domain.CartLine, 0)
	}
	return lines, nil
}

// AddLine implements Repository.
func (m *MemoryRepository) AddLine(_ context.Context, customerID string, line *domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	line.CreatedAt = time.Now()
	m.lines[customerID] = append(m.lines[customerID], *line)
	return nil
}

// RemoveLines implements Repository.
func (m *MemoryRepository) RemoveLines(_ context.Context, customerID string, keys []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.lines[customerID])
	m.lines[customerID] = slices.DeleteFunc(m.lines[customerID], func(l domain.CartLine) bool {
		return slices.Contains(keys, l.Key)
	})
	return int64(before - len(m.lines[customerID])), nil
}

// Clear implements Repository.
func (m *MemoryRepository) Clear(_ context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.lines, customerID)
	return nil
}
