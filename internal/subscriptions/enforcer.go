package subscriptions

import (
	"context"
	"fmt"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/notifications"
	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
	"github.com/bissquit/shop-subscriptions/internal/scheduler"
)

// ExpiredNote is the order note recorded when a subscription lapses.
const ExpiredNote = "Subscription expired automatically."

// Enforcer completes orders whose subscription has expired.
type Enforcer struct {
	standings *Standings
	orders    OrderStore
	emails    EmailDispatcher
	settings  Settings
}

// NewEnforcer creates a new expiry enforcer.
func NewEnforcer(standings *Standings, orderStore OrderStore, emails EmailDispatcher, settings Settings) *Enforcer {
	return &Enforcer{
		standings: standings,
		orders:    orderStore,
		emails:    emails,
		settings:  settings,
	}
}

// CheckExpiry completes the order and sends the expired email when its
// stored expiry has been reached. It is the handler of the expiry task.
func (e *Enforcer) CheckExpiry(ctx context.Context, orderID int64) error {
	logger := ctxlog.FromContext(ctx)

	st, err := e.standings.Load(ctx, orderID)
	if err != nil {
		return err
	}
	if st == nil || st.Expiry == "" {
		logger.Debug("expiry check skipped, no subscription expiry")
		return nil
	}
	if st.ExpiresAt.IsZero() {
		logger.Warn("expiry check skipped, malformed expiry", "expiry", st.Expiry)
		return nil
	}
	if !st.Lapsed(e.settings.now()) {
		logger.Debug("subscription not yet expired", "expiry", st.Expiry)
		return nil
	}

	if err := e.orders.UpdateStatus(ctx, orderID, domain.OrderStatusCompleted, ExpiredNote); err != nil {
		return fmt.Errorf("complete expired order: %w", err)
	}
	expirationsTotal.Inc()
	logger.Info("subscription expired, order completed", "expiry", st.Expiry)

	if err := e.emails.SendSubscriptionEmail(ctx, orderID, notifications.MessageTypeExpired); err != nil {
		return scheduler.NewNonRetryableError(fmt.Errorf("send expired email: %w", err))
	}

	return nil
}
