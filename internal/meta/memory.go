package meta

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store used by tests and tooling.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func memoryKey(entity EntityType, id int64, key string) string {
	return fmt.Sprintf("%s/%d/%s", entity, id, key)
}

// Get returns the value or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, entity EntityType, id int64, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[memoryKey(entity, id, key)]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores the value.
func (m *MemoryStore) Set(_ context.Context, entity EntityType, id int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[memoryKey(entity, id, key)] = value
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (m *MemoryStore) Delete(_ context.Context, entity EntityType, id int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, memoryKey(entity, id, key))
	return nil
}
