package subscriptions

import (
	"context"
	"fmt"

	"github.com/bissquit/shop-subscriptions/internal/notifications"
	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
	"github.com/bissquit/shop-subscriptions/internal/scheduler"
)

// Reminder sends the pre-expiry reminder email.
type Reminder struct {
	standings *Standings
	emails    EmailDispatcher
	settings  Settings
}

// NewReminder creates a new reminder.
func NewReminder(standings *Standings, emails EmailDispatcher, settings Settings) *Reminder {
	return &Reminder{
		standings: standings,
		emails:    emails,
		settings:  settings,
	}
}

// SendReminder emails the buyer if the order is still an active subscription.
// It is the handler of the reminder task.
func (r *Reminder) SendReminder(ctx context.Context, orderID int64) error {
	logger := ctxlog.FromContext(ctx)

	st, err := r.standings.Load(ctx, orderID)
	if err != nil {
		return err
	}
	if st == nil || !st.Active(r.settings.now()) {
		remindersTotal.WithLabelValues("skipped").Inc()
		logger.Info("reminder skipped, order is not an active subscription")
		return nil
	}

	if err := r.emails.SendSubscriptionEmail(ctx, orderID, notifications.MessageTypeReminder); err != nil {
		remindersTotal.WithLabelValues("failed").Inc()
		return scheduler.NewNonRetryableError(fmt.Errorf("send reminder email: %w", err))
	}

	remindersTotal.WithLabelValues("sent").Inc()
	return nil
}
