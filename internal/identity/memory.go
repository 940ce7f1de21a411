package identity

import (
	"context"
	"sync"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// MemoryRepository is an in-process Repository used by tests and tooling.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*domain.User)}
}

// CreateUser implements Repository.
func (m *MemoryRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrEmailExists
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

// GetUserByID implements Repository.
func (m *MemoryRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail implements Repository.
func (m *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}
