package cart

import (
	"context"
	"log/slog"

	"github.com/bissquit/shop-subscriptions/internal/events"
)

// Resetter empties the buyer's cart once an order is confirmed.
type Resetter struct {
	carts *Service
}

// NewResetter creates a new post-checkout cart resetter.
func NewResetter(carts *Service) *Resetter {
	return &Resetter{carts: carts}
}

// HandleOrderConfirmed is the events.OrderConfirmedHandler of the resetter.
func (r *Resetter) HandleOrderConfirmed(ctx context.Context, e events.OrderConfirmed) error {
	if e.CustomerID == "" {
		return nil
	}
	if err := r.carts.Empty(ctx, e.CustomerID); err != nil {
		return err
	}
	slog.Debug("cart emptied after order", "customer_id", e.CustomerID, "order_id", e.OrderID)
	return nil
}
