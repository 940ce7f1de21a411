// Package events provides the typed event bus the shop publishes its hooks
// through. The set of events is closed: each has its own payload type,
// registration method and publish method.
package events

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// ProductSaved is published after a product has been stored from the admin
// edit form. Form holds the posted form fields.
type ProductSaved struct {
	ProductID int64
	Form      url.Values
}

// OrderConfirmed is published every time the order-received view of an order
// is produced. It may repeat for the same order.
type OrderConfirmed struct {
	OrderID    int64
	CustomerID string
}

// AddToCartValidation is published before a product is added to a cart.
type AddToCartValidation struct {
	CustomerID string
	ProductID  int64
	Quantity   int
}

// ProductSavedHandler reacts to a saved product.
type ProductSavedHandler func(ctx context.Context, e ProductSaved) error

// OrderConfirmedHandler reacts to a confirmed order.
type OrderConfirmedHandler func(ctx context.Context, e OrderConfirmed) error

// AddToCartValidator decides whether an add-to-cart may proceed.
type AddToCartValidator func(ctx context.Context, e AddToCartValidation) (bool, error)

// Bus dispatches events to registered handlers in registration order.
type Bus struct {
	mu             sync.RWMutex
	productSaved   []ProductSavedHandler
	orderConfirmed []OrderConfirmedHandler
	addToCart      []AddToCartValidator
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnProductSaved registers a ProductSaved handler.
func (b *Bus) OnProductSaved(h ProductSavedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.productSaved = append(b.productSaved, h)
}

// OnOrderConfirmed registers an OrderConfirmed handler.
func (b *Bus) OnOrderConfirmed(h OrderConfirmedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orderConfirmed = append(b.orderConfirmed, h)
}

// OnAddToCart registers an add-to-cart validator.
func (b *Bus) OnAddToCart(v AddToCartValidator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addToCart = append(b.addToCart, v)
}

// PublishProductSaved runs every ProductSaved handler and returns their
// joined errors.
func (b *Bus) PublishProductSaved(ctx context.Context, e ProductSaved) error {
	b.mu.RLock()
	handlers := b.productSaved
	b.mu.RUnlock()

	recordPublished("product_saved")

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			recordHandlerError("product_saved")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishOrderConfirmed runs every OrderConfirmed handler. A failing handler
// does not stop the others.
func (b *Bus) PublishOrderConfirmed(ctx context.Context, e OrderConfirmed) error {
	b.mu.RLock()
	handlers := b.orderConfirmed
	b.mu.RUnlock()

	recordPublished("order_confirmed")

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			recordHandlerError("order_confirmed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateAddToCart runs validators until one rejects or fails.
// With no validators registered the add passes.
func (b *Bus) ValidateAddToCart(ctx context.Context, e AddToCartValidation) (bool, error) {
	b.mu.RLock()
	validators := b.addToCart
	b.mu.RUnlock()

	recordPublished("add_to_cart_validation")

	for _, v := range validators {
		passed, err := v(ctx, e)
		if err != nil {
			recordHandlerError("add_to_cart_validation")
			return false, fmt.Errorf("validate add to cart: %w", err)
		}
		if !passed {
			return false, nil
		}
	}
	return true, nil
}
