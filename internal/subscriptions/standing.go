package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/meta"
	"github.com/bissquit/shop-subscriptions/internal/orders"
)

// Standing is the subscription state of an order as of now.
type Standing struct {
	Order           *domain.Order
	HasSubscription bool
	// Expiry is the stored date, empty when absent.
	Expiry string
	// ExpiresAt is midnight of Expiry in the shop time zone, zero when
	// Expiry is absent or malformed.
	ExpiresAt time.Time
}

// Qualifies reports whether the order shows an expiry date to the buyer.
func (s *Standing) Qualifies() bool {
	return s.HasSubscription && s.Expiry != ""
}

// Lapsed reports whether the stored expiry has been reached at now.
func (s *Standing) Lapsed(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// Active reports whether the order is a subscription that has not expired.
func (s *Standing) Active(now time.Time) bool {
	return s.Qualifies() && !s.ExpiresAt.IsZero() && s.ExpiresAt.After(now)
}

// Standings evaluates the subscription state of orders.
type Standings struct {
	orders   OrderStore
	products ProductCatalog
	meta     meta.Store
	settings Settings
}

// NewStandings creates a new standing evaluator.
func NewStandings(orderStore OrderStore, products ProductCatalog, metaStore meta.Store, settings Settings) *Standings {
	return &Standings{
		orders:   orderStore,
		products: products,
		meta:     metaStore,
		settings: settings,
	}
}

// Load returns the standing of the order, or nil if the order does not exist.
func (s *Standings) Load(ctx context.Context, orderID int64) (*Standing, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return s.Of(ctx, order)
}

// Of evaluates the standing of an already loaded order.
func (s *Standings) Of(ctx context.Context, order *domain.Order) (*Standing, error) {
	hasSub, err := s.HasSubscriptionItem(ctx, order)
	if err != nil {
		return nil, err
	}

	expiry, err := meta.Value(ctx, s.meta, meta.EntityOrder, order.ID, domain.MetaSubscriptionExpiry)
	if err != nil {
		return nil, fmt.Errorf("get subscription expiry: %w", err)
	}

	st := &Standing{
		Order:           order,
		HasSubscription: hasSub,
		Expiry:          expiry,
	}

	if expiry != "" {
		at, err := domain.ParseExpiry(expiry, s.settings.location())
		if err != nil {
			slog.Warn("ignoring malformed subscription expiry", "order_id", order.ID, "error", err)
		} else {
			st.ExpiresAt = at
		}
	}

	return st, nil
}

// HasSubscriptionItem reports whether any line item is a subscription product.
// Items whose product no longer exists never count.
func (s *Standings) HasSubscriptionItem(ctx context.Context, order *domain.Order) (bool, error) {
	for _, item := range order.Items {
		isSub, err := s.products.IsSubscriptionProduct(ctx, item.ProductID)
		if err != nil {
			return false, fmt.Errorf("check product %d: %w", item.ProductID, err)
		}
		if isSub {
			return true, nil
		}
	}
	return false, nil
}
