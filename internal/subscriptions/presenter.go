package subscriptions

import (
	"context"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/orders"
	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
)

// ColumnSubscriptionExpiry is the order list column showing the expiry date.
const ColumnSubscriptionExpiry = "subscription_expiry"

const (
	expiryLineLabel   = "Subscription Expiry Date"
	expiryColumnLabel = "Expiry Date"
	emptyCell         = "-"
)

var _ orders.ViewExtension = (*Presenter)(nil)

// Presenter shows the subscription expiry on the customer order views.
type Presenter struct {
	standings *Standings
}

// NewPresenter creates a new presenter.
func NewPresenter(standings *Standings) *Presenter {
	return &Presenter{standings: standings}
}

// ExpiryLine returns the detail row with the expiry date if the order has a
// subscription item and a stored expiry.
func (p *Presenter) ExpiryLine(ctx context.Context, order *domain.Order) (orders.DetailLine, bool) {
	expiry, ok := p.qualifyingExpiry(ctx, order)
	if !ok {
		return orders.DetailLine{}, false
	}
	return orders.DetailLine{Label: expiryLineLabel, Value: expiry}, true
}

// ExpiryCell returns the expiry date for the order list, or "-".
func (p *Presenter) ExpiryCell(ctx context.Context, order *domain.Order) string {
	expiry, ok := p.qualifyingExpiry(ctx, order)
	if !ok {
		return emptyCell
	}
	return expiry
}

// OrderListColumns appends the expiry column.
func (p *Presenter) OrderListColumns(base []orders.Column) []orders.Column {
	columns := make([]orders.Column, 0, len(base)+1)
	columns = append(columns, base...)
	return append(columns, orders.Column{Key: ColumnSubscriptionExpiry, Label: expiryColumnLabel})
}

// OrderListCell renders the expiry column and declines every other one.
func (p *Presenter) OrderListCell(ctx context.Context, order *domain.Order, column string) (string, bool) {
	if column != ColumnSubscriptionExpiry {
		return "", false
	}
	return p.ExpiryCell(ctx, order), true
}

// OrderDetailLines returns the expiry line when the order qualifies.
func (p *Presenter) OrderDetailLines(ctx context.Context, order *domain.Order) []orders.DetailLine {
	line, ok := p.ExpiryLine(ctx, order)
	if !ok {
		return nil
	}
	return []orders.DetailLine{line}
}

func (p *Presenter) qualifyingExpiry(ctx context.Context, order *domain.Order) (string, bool) {
	st, err := p.standings.Of(ctx, order)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("subscription standing unavailable",
			"order_id", order.ID,
			"error", err,
		)
		return "", false
	}
	if !st.Qualifies() {
		return "", false
	}
	return st.Expiry, true
}
