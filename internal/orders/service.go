// Package orders provides checkout, order history and status changes.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bissquit/shop-subscriptions/internal/catalog"
	"github.com/bissquit/shop-subscriptions/internal/domain"
)

// ProductReader looks up catalog products.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// CartReader reads a customer's cart.
type CartReader interface {
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
}

// CustomerReader looks up the buyer's account.
type CustomerReader interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Service provides order business logic.
type Service struct {
	repo      Repository
	products  ProductReader
	carts     CartReader
	customers CustomerReader
}

// NewService creates a new orders service.
func NewService(repo Repository, products ProductReader, carts CartReader, customers CustomerReader) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		carts:     carts,
		customers: customers,
	}
}

// Checkout turns the customer's cart into a processing order.
// The cart itself is left as is.
func (s *Service) Checkout(ctx context.Context, customerID string) (*domain.Order, error) {
	customer, err := s.customers.GetUser(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			slog.Warn("skipping removed product at checkout",
				"customer_id", customerID,
				"product_id", line.ProductID,
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}

		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
		})
	}
	if len(items) == 0 {
		return nil, ErrNoOrderedItems
	}

	order := &domain.Order{
		CustomerID:       customerID,
		Status:           domain.OrderStatusProcessing,
		BillingEmail:     customer.Email,
		BillingFirstName: customer.FirstName,
		Items:            items,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	slog.Info("order placed",
		"order_id", order.ID,
		"customer_id", customerID,
		"items", len(items),
	)
	return order, nil
}

// GetOrder returns an order with its items.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// GetCustomerOrder returns an order only if it belongs to the customer.
func (s *Service) GetCustomerOrder(ctx context.Context, customerID string, id int64) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

// ListCustomerOrders returns the customer's orders, newest first.
func (s *Service) ListCustomerOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

// UpdateStatus transitions an order and records a note.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, note string) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status, note); err != nil {
		return err
	}

	slog.Info("order status changed", "order_id", id, "status", status)
	return nil
}

// ListNotes returns the notes recorded on an order.
func (s *Service) ListNotes(ctx context.Context, orderID int64) ([]domain.OrderNote, error) {
	return s.repo.ListNotes(ctx, orderID)
}
