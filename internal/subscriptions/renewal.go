package subscriptions

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/bissquit/shop-subscriptions/internal/catalog"
	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
)

// RenewalLinks builds the link a buyer follows to renew a subscription.
type RenewalLinks struct {
	orders   OrderStore
	products ProductCatalog
	settings Settings
}

// NewRenewalLinks creates a new renewal link builder.
func NewRenewalLinks(orderStore OrderStore, products ProductCatalog, settings Settings) *RenewalLinks {
	return &RenewalLinks{
		orders:   orderStore,
		products: products,
		settings: settings,
	}
}

// RenewalURL returns the checkout link that adds the first still existing
// product of the order to the cart. It falls back to the shop home page.
func (l *RenewalLinks) RenewalURL(ctx context.Context, orderID int64) string {
	logger := ctxlog.FromContext(ctx)

	order, err := l.orders.GetOrder(ctx, orderID)
	if err != nil {
		logger.Debug("renewal link falls back to home page", "order_id", orderID, "error", err)
		return l.settings.HomeURL
	}

	for _, item := range order.Items {
		_, err := l.products.GetProduct(ctx, item.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("renewal product lookup failed", "product_id", item.ProductID, "error", err)
			continue
		}
		return addToCartURL(l.settings.CheckoutURL, item.ProductID)
	}

	return l.settings.HomeURL
}

func addToCartURL(checkoutURL string, productID int64) string {
	id := strconv.FormatInt(productID, 10)

	u, err := url.Parse(checkoutURL)
	if err != nil {
		return checkoutURL + "?add-to-cart=" + id
	}
	q := u.Query()
	q.Set("add-to-cart", id)
	u.RawQuery = q.Encode()
	return u.String()
}
