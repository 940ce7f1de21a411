// Package cart provides customer carts and the subscription rules that
// apply to them.
package cart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/events"
	"github.com/google/uuid"
)

// ProductReader looks up catalog products.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// AddToCartValidator runs the add-to-cart filters.
type AddToCartValidator interface {
	ValidateAddToCart(ctx context.Context, e events.AddToCartValidation) (bool, error)
}

// Service provides cart business logic.
type Service struct {
	repo      Repository
	products  ProductReader
	validator AddToCartValidator
}

// NewService creates a new cart service.
func NewService(repo Repository, products ProductReader, validator AddToCartValidator) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		validator: validator,
	}
}

// Get returns the customer's cart.
func (s *Service) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	lines, err := s.repo.ListLines(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &domain.Cart{CustomerID: customerID, Lines: lines}, nil
}

// AddItem runs the add-to-cart filters and then appends a line.
func (s *Service) AddItem(ctx context.Context, customerID string, productID int64, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	passed, err := s.validator.ValidateAddToCart(ctx, events.AddToCartValidation{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	})
	if err != nil {
		return nil, err
	}
	if !passed {
		return nil, ErrAddToCartRejected
	}

	line := &domain.CartLine{
		Key:       uuid.NewString(),
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.repo.AddLine(ctx, customerID, line); err != nil {
		return nil, err
	}

	slog.Debug("cart line added",
		"customer_id", customerID,
		"product_id", productID,
		"quantity", quantity,
	)
	return line, nil
}

// RemoveItem removes a single line by key.
func (s *Service) RemoveItem(ctx context.Context, customerID, key string) error {
	if _, err := uuid.Parse(key); err != nil {
		return ErrCartLineNotFound
	}

	n, err := s.repo.RemoveLines(ctx, customerID, []string{key})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

// RemoveLines removes the given lines and ignores keys that are gone.
func (s *Service) RemoveLines(ctx context.Context, customerID string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.repo.RemoveLines(ctx, customerID, keys); err != nil {
		return fmt.Errorf("remove cart lines: %w", err)
	}
	return nil
}

// Empty removes every line from the customer's cart.
func (s *Service) Empty(ctx context.Context, customerID string) error {
	if err := s.repo.Clear(ctx, customerID); err != nil {
		return fmt.Errorf("empty cart: %w", err)
	}
	return nil
}
