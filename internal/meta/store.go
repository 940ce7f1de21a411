// Package meta provides a generic key/value metadata store attached to shop
// entities such as products and orders.
package meta

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a metadata key is absent.
var ErrNotFound = errors.New("metadata not found")

// EntityType names the kind of entity metadata is attached to.
type EntityType string

// Entity types.
const (
	EntityProduct EntityType = "product"
	EntityOrder   EntityType = "order"
)

// Store reads and writes entity metadata. Writes are last-write-wins.
type Store interface {
	Get(ctx context.Context, entity EntityType, id int64, key string) (string, error)
	Set(ctx context.Context, entity EntityType, id int64, key, value string) error
	Delete(ctx context.Context, entity EntityType, id int64, key string) error
}

// Value returns the stored value or an empty string when the key is absent.
func Value(ctx context.Context, s Store, entity EntityType, id int64, key string) (string, error) {
	v, err := s.Get(ctx, entity, id, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
