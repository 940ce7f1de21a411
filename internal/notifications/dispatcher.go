// Package notifications renders and sends subscription emails.
package notifications

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

// OrderReader loads orders.
type OrderReader interface {
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

// RenewalLinker builds the "buy again" link of an order.
type RenewalLinker interface {
	RenewalURL(ctx context.Context, orderID int64) string
}

// Dispatcher builds subscription emails for an order and sends them to the
// billing address.
type Dispatcher struct {
	orders   OrderReader
	meta     meta.Store
	links    RenewalLinker
	renderer *Renderer
	sender   Sender
	shopName string
}

// NewDispatcher creates a new subscription email dispatcher.
func NewDispatcher(orderReader OrderReader, metaStore meta.Store, links RenewalLinker, renderer *Renderer, sender Sender, shopName string) *Dispatcher {
	return &Dispatcher{
		orders:   orderReader,
		meta:     metaStore,
		links:    links,
		renderer: renderer,
		sender:   sender,
		shopName: shopName,
	}
}

// SendSubscriptionEmail sends the email of the given type for the order.
// An empty type means a reminder. A missing order, a missing billing email
// and a disabled sender are not errors; nothing is delivered.
func (d *Dispatcher) SendSubscriptionEmail(ctx context.Context, orderID int64, messageType MessageType) error {
	if messageType == "" {
		messageType = MessageTypeReminder
	}
	if !messageType.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, messageType)
	}

	order, err := d.orders.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		slog.Debug("subscription email skipped, order not found", "order_id", orderID, "type", messageType)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	if order.BillingEmail == "" {
		slog.Debug("subscription email skipped, order has no billing email", "order_id", orderID, "type", messageType)
		recordEmailSent(messageType, "skipped")
		return nil
	}

	expiry, err := meta.Value(ctx, d.meta, meta.EntityOrder, orderID, domain.MetaSubscriptionExpiry)
	if err != nil {
		return fmt.Errorf("get subscription expiry: %w", err)
	}

	subject, body, err := d.renderer.Render(messageType, EmailData{
		FirstName:  order.BillingFirstName,
		ExpiryDate: expiry,
		RenewalURL: d.links.RenewalURL(ctx, orderID),
		ShopName:   d.shopName,
	})
	if err != nil {
		recordEmailSent(messageType, "failed")
		return fmt.Errorf("render %s email: %w", messageType, err)
	}

	start := time.Now()
	err = d.sender.Send(ctx, Message{
		To:       order.BillingEmail,
		Subject:  subject,
		HTMLBody: body,
	})
	recordEmailDuration(messageType, time.Since(start))
	if errors.Is(err, ErrSenderDisabled) {
		recordEmailSent(messageType, "skipped")
		return nil
	}
	if err != nil {
		recordEmailSent(messageType, "failed")
		return fmt.Errorf("send %s email: %w", messageType, err)
	}

	recordEmailSent(messageType, "success")
	slog.Info("subscription email sent",
		"order_id", orderID,
		"type", messageType,
	)
	return nil
}
