package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/events"
	"github.com/bissquit/shop-subscriptions/internal/meta"
	"github.com/bissquit/shop-subscriptions/internal/orders"
	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
	"github.com/bissquit/shop-subscriptions/internal/scheduler"
	"github.com/samber/lo"
)

// ReminderLeadDays is how many calendar days before expiry the reminder fires.
const ReminderLeadDays = 7

// Activator computes the subscription expiry of a confirmed order and
// schedules its reminder and expiry check.
type Activator struct {
	orders    OrderStore
	products  ProductCatalog
	meta      meta.Store
	scheduler TaskScheduler
	settings  Settings
}

// NewActivator creates a new activator.
func NewActivator(orderStore OrderStore, products ProductCatalog, metaStore meta.Store, sched TaskScheduler, settings Settings) *Activator {
	return &Activator{
		orders:    orderStore,
		products:  products,
		meta:      metaStore,
		scheduler: sched,
		settings:  settings,
	}
}

// HandleOrderConfirmed is the OrderConfirmed event handler.
func (a *Activator) HandleOrderConfirmed(ctx context.Context, e events.OrderConfirmed) error {
	return a.Activate(ctx, e.OrderID)
}

// Activate records the expiry for a subscription order and schedules its
// tasks. Orders without a subscription item lose any stale expiry and tasks.
// Repeated calls for an order whose items did not change do nothing.
func (a *Activator) Activate(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return nil
	}

	ctx = ctxlog.With(ctx, "order_id", orderID)
	logger := ctxlog.FromContext(ctx)

	order, err := a.orders.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		logger.Debug("subscription activation skipped, order not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	fingerprint := itemsFingerprint(order.Items)
	marker, err := meta.Value(ctx, a.meta, meta.EntityOrder, orderID, domain.MetaSubscriptionActivation)
	if err != nil {
		return fmt.Errorf("get activation marker: %w", err)
	}
	if marker != "" && marker == fingerprint {
		activationsTotal.WithLabelValues("unchanged").Inc()
		logger.Debug("subscription already activated for these items")
		return nil
	}

	expiry, found, err := a.expiryFor(ctx, order)
	if err != nil {
		return err
	}

	if found {
		if err := a.schedule(ctx, orderID, expiry); err != nil {
			return err
		}
		activationsTotal.WithLabelValues("scheduled").Inc()
		logger.Info("subscription activated", "expiry", expiry.Format(domain.ExpiryLayout))
	} else {
		if err := a.clear(ctx, orderID); err != nil {
			return err
		}
		activationsTotal.WithLabelValues("cleared").Inc()
		logger.Debug("order has no subscription item")
	}

	if err := a.meta.Set(ctx, meta.EntityOrder, orderID, domain.MetaSubscriptionActivation, fingerprint); err != nil {
		return fmt.Errorf("set activation marker: %w", err)
	}

	return nil
}

// expiryFor returns the expiry granted by the last subscription item.
func (a *Activator) expiryFor(ctx context.Context, order *domain.Order) (time.Time, bool, error) {
	today := a.settings.today()

	var (
		expiry time.Time
		found  bool
	)
	for _, item := range order.Items {
		isSub, err := a.products.IsSubscriptionProduct(ctx, item.ProductID)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("check product %d: %w", item.ProductID, err)
		}
		if !isSub {
			continue
		}

		duration, err := a.products.SubscriptionDuration(ctx, item.ProductID)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("get duration of product %d: %w", item.ProductID, err)
		}

		expiry = duration.ExpiryFrom(today)
		found = true
	}

	return expiry, found, nil
}

func (a *Activator) schedule(ctx context.Context, orderID int64, expiry time.Time) error {
	if err := a.meta.Set(ctx, meta.EntityOrder, orderID, domain.MetaSubscriptionExpiry, expiry.Format(domain.ExpiryLayout)); err != nil {
		return fmt.Errorf("set subscription expiry: %w", err)
	}

	reminderAt := expiry.AddDate(0, 0, -ReminderLeadDays)
	if err := a.scheduler.Schedule(ctx, orderID, scheduler.KindSubscriptionReminder, reminderAt); err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	if err := a.scheduler.Schedule(ctx, orderID, scheduler.KindSubscriptionExpiry, expiry); err != nil {
		return fmt.Errorf("schedule expiry check: %w", err)
	}

	return nil
}

func (a *Activator) clear(ctx context.Context, orderID int64) error {
	if err := a.meta.Delete(ctx, meta.EntityOrder, orderID, domain.MetaSubscriptionExpiry); err != nil {
		return fmt.Errorf("delete subscription expiry: %w", err)
	}
	if err := a.scheduler.Cancel(ctx, orderID, scheduler.KindSubscriptionReminder, scheduler.KindSubscriptionExpiry); err != nil {
		return fmt.Errorf("cancel subscription tasks: %w", err)
	}
	return nil
}

// itemsFingerprint identifies the purchased items of an order.
func itemsFingerprint(items []domain.OrderItem) string {
	return strings.Join(lo.Map(items, func(item domain.OrderItem, _ int) string {
		return fmt.Sprintf("%d:%d", item.ProductID, item.Quantity)
	}), ",")
}
