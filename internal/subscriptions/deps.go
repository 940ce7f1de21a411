// Package subscriptions manages the lifecycle of manual subscriptions:
// activation on order confirmation, reminders, expiry and the views that
// show the expiry date to the buyer.
package subscriptions

import (
	"context"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/notifications"
	"github.com/bissquit/shop-subscriptions/internal/scheduler"
)

// OrderStore loads orders and changes their status.
type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, note string) error
}

// ProductCatalog answers product questions the subscription rules need.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	IsSubscriptionProduct(ctx context.Context, productID int64) (bool, error)
	SubscriptionDuration(ctx context.Context, productID int64) (domain.SubscriptionDuration, error)
}

// TaskScheduler schedules and cancels deferred order tasks.
type TaskScheduler interface {
	Schedule(ctx context.Context, orderID int64, kind scheduler.TaskKind, runAt time.Time) error
	Cancel(ctx context.Context, orderID int64, kinds ...scheduler.TaskKind) error
}

// EmailDispatcher sends subscription emails.
type EmailDispatcher interface {
	SendSubscriptionEmail(ctx context.Context, orderID int64, messageType notifications.MessageType) error
}

// Settings are the shop-wide inputs of the subscription components.
type Settings struct {
	Location    *time.Location
	HomeURL     string
	CheckoutURL string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s Settings) now() time.Time {
	if s.Now == nil {
		return time.Now().In(s.location())
	}
	return s.Now().In(s.location())
}

// today returns midnight of the current calendar day in the shop time zone.
func (s Settings) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location())
}
