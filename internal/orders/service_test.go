package orders

import (
	"context"
	"testing"

	"github.com/bissquit/shop-subscriptions/internal/catalog"
	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProducts map[int64]string

func (m mockProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	name, ok := m[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &domain.Product{ID: id, Name: name}, nil
}

type mockCarts map[string][]domain.CartLine

func (m mockCarts) Get(_ context.Context, customerID string) (*domain.Cart, error) {
	return &domain.Cart{CustomerID: customerID, Lines: m[customerID]}, nil
}

type mockCustomers map[string]*domain.User

func (m mockCustomers) GetUser(_ context.Context, id string) (*domain.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, assert.AnError
	}
	return u, nil
}

const (
	aliceID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	bobID   = "9b2f5c3e-1c6a-4d1e-8f3a-2b7d9e0c4a11"
)

func newTestService(carts mockCarts) (*Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	svc := NewService(repo,
		mockProducts{1: "Gold Plan", 2: "T-Shirt"},
		carts,
		mockCustomers{
			aliceID: {ID: aliceID, Email: "alice@example.com", FirstName: "alice"},
			bobID:   {ID: bobID, Email: "bob@example.com", FirstName: "Bob"},
		},
	)
	return svc, repo
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("creates processing order from cart", func(t *testing.T) {
		svc, _ := newTestService(mockCarts{aliceID: {
			{Key: "a", ProductID: 1, Quantity: 1},
			{Key: "b", ProductID: 2, Quantity: 3},
		}})

		order, err := svc.Checkout(ctx, aliceID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusProcessing, order.Status)
		assert.Equal(t, "alice@example.com", order.BillingEmail)
		assert.Equal(t, "alice", order.BillingFirstName)
		require.Len(t, order.Items, 2)
		assert.Equal(t, "Gold Plan", order.Items[0].Name)
		assert.Equal(t, int64(2), order.Items[1].ProductID)
		assert.Equal(t, 3, order.Items[1].Quantity)

		stored, err := svc.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.Items, stored.Items)
	})

	t.Run("empty cart", func(t *testing.T) {
		svc, _ := newTestService(mockCarts{})
		_, err := svc.Checkout(ctx, aliceID)
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("removed products are skipped", func(t *testing.T) {
		svc, _ := newTestService(mockCarts{aliceID: {
			{Key: "a", ProductID: 99, Quantity: 1},
			{Key: "b", ProductID: 1, Quantity: 1},
		}})
		order, err := svc.Checkout(ctx, aliceID)
		require.NoError(t, err)
		require.Len(t, order.Items, 1)
		assert.Equal(t, int64(1), order.Items[0].ProductID)
	})

	t.Run("only removed products", func(t *testing.T) {
		svc, _ := newTestService(mockCarts{aliceID: {{Key: "a", ProductID: 99, Quantity: 1}}})
		_, err := svc.Checkout(ctx, aliceID)
		assert.ErrorIs(t, err, ErrNoOrderedItems)
	})
}

func TestService_GetCustomerOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(mockCarts{aliceID: {{Key: "a", ProductID: 1, Quantity: 1}}})

	order, err := svc.Checkout(ctx, aliceID)
	require.NoError(t, err)

	_, err = svc.GetCustomerOrder(ctx, aliceID, order.ID)
	require.NoError(t, err)

	_, err = svc.GetCustomerOrder(ctx, bobID, order.ID)
	assert.ErrorIs(t, err, ErrNotOrderOwner)

	_, err = svc.GetCustomerOrder(ctx, aliceID, 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(mockCarts{aliceID: {{Key: "a", ProductID: 1, Quantity: 1}}})

	order, err := svc.Checkout(ctx, aliceID)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, order.ID, domain.OrderStatusCompleted, "Subscription expired automatically."))

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, stored.Status)

	notes, err := svc.ListNotes(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Subscription expired automatically.", notes[0].Note)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, order.ID, "archived", ""), ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, 404, domain.OrderStatusCompleted, ""), ErrOrderNotFound)
}
