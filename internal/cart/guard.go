package cart

import (
	"context"
	"log/slog"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/events"
	"github.com/samber/lo"
)

// SubscriptionChecker reports whether a product is a subscription.
type SubscriptionChecker interface {
	IsSubscriptionProduct(ctx context.Context, productID int64) (bool, error)
}

// Guard keeps at most one subscription product in a cart. Adding a
// subscription evicts the subscriptions already there. It never blocks the
// add itself.
type Guard struct {
	carts    *Service
	products SubscriptionChecker
}

// NewGuard creates a new cart guard.
func NewGuard(carts *Service, products SubscriptionChecker) *Guard {
	return &Guard{carts: carts, products: products}
}

// Validate is the events.AddToCartValidator of the guard.
func (g *Guard) Validate(ctx context.Context, e events.AddToCartValidation) (bool, error) {
	isSub, err := g.products.IsSubscriptionProduct(ctx, e.ProductID)
	if err != nil {
		slog.Warn("cart guard: product lookup failed", "product_id", e.ProductID, "error", err)
		return true, nil
	}
	if !isSub {
		return true, nil
	}

	cart, err := g.carts.Get(ctx, e.CustomerID)
	if err != nil {
		slog.Warn("cart guard: cart lookup failed", "customer_id", e.CustomerID, "error", err)
		return true, nil
	}
	if cart.IsEmpty() {
		return true, nil
	}

	evicted := lo.Filter(cart.Lines, func(line domain.CartLine, _ int) bool {
		sub, err := g.products.IsSubscriptionProduct(ctx, line.ProductID)
		if err != nil {
			slog.Warn("cart guard: product lookup failed", "product_id", line.ProductID, "error", err)
			return false
		}
		return sub
	})
	if len(evicted) == 0 {
		return true, nil
	}

	keys := lo.Map(evicted, func(line domain.CartLine, _ int) string { return line.Key })
	if err := g.carts.RemoveLines(ctx, e.CustomerID, keys); err != nil {
		slog.Warn("cart guard: eviction failed", "customer_id", e.CustomerID, "error", err)
		return true, nil
	}

	slog.Info("replaced subscription in cart",
		"customer_id", e.CustomerID,
		"product_id", e.ProductID,
		"evicted", lo.Uniq(lo.Map(evicted, func(line domain.CartLine, _ int) int64 { return line.ProductID })),
	)
	return true, nil
}
