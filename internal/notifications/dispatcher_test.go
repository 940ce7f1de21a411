package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/meta"
	"github.com/bissquit/shop-subscriptions/internal/orders"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrders map[int64]*domain.Order

func (m mockOrders) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := m[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return o, nil
}

type staticLinks string

func (s staticLinks) RenewalURL(context.Context, int64) string { return string(s) }

type recordingSender struct {
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newTestDispatcher(t *testing.T, sender *recordingSender) *Dispatcher {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)

	store := meta.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), meta.EntityOrder, 1, domain.MetaSubscriptionExpiry, "2025-03-10"))

	return NewDispatcher(
		mockOrders{1: {ID: 1, BillingEmail: "alice@example.com", BillingFirstName: "Alice"}},
		store,
		staticLinks("https://shop.example.com/checkout/?add-to-cart=12"),
		renderer,
		sender,
		"Gold Shop",
	)
}

func TestDispatcher_SendSubscriptionEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("empty type means reminder", func(t *testing.T) {
		sender := &recordingSender{}
		d := newTestDispatcher(t, sender)

		require.NoError(t, d.SendSubscriptionEmail(ctx, 1, ""))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "alice@example.com", sender.sent[0].To)
		assert.Equal(t, "Your subscription will expire in 7 days", sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].HTMLBody, "2025-03-10")
		assert.Contains(t, sender.sent[0].HTMLBody, "add-to-cart=12")
	})

	t.Run("expired", func(t *testing.T) {
		sender := &recordingSender{}
		d := newTestDispatcher(t, sender)

		require.NoError(t, d.SendSubscriptionEmail(ctx, 1, MessageTypeExpired))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "Your subscription has expired", sender.sent[0].Subject)
	})

	t.Run("missing order is a no-op", func(t *testing.T) {
		sender := &recordingSender{}
		d := newTestDispatcher(t, sender)

		require.NoError(t, d.SendSubscriptionEmail(ctx, 404, MessageTypeReminder))
		assert.Empty(t, sender.sent)
	})

	t.Run("missing billing email is a no-op", func(t *testing.T) {
		sender := &recordingSender{}
		d := newTestDispatcher(t, sender)
		d.orders = mockOrders{2: {ID: 2, BillingFirstName: "Bob"}}

		require.NoError(t, d.SendSubscriptionEmail(ctx, 2, MessageTypeExpired))
		assert.Empty(t, sender.sent)
	})

	t.Run("disabled sender is not counted as sent", func(t *testing.T) {
		before := testutil.ToFloat64(emailsSent.WithLabelValues(string(MessageTypeReminder), "success"))
		skipped := testutil.ToFloat64(emailsSent.WithLabelValues(string(MessageTypeReminder), "skipped"))
		d := newTestDispatcher(t, &recordingSender{err: ErrSenderDisabled})

		require.NoError(t, d.SendSubscriptionEmail(ctx, 1, MessageTypeReminder))
		assert.Equal(t, before, testutil.ToFloat64(emailsSent.WithLabelValues(string(MessageTypeReminder), "success")))
		assert.Equal(t, skipped+1, testutil.ToFloat64(emailsSent.WithLabelValues(string(MessageTypeReminder), "skipped")))
	})

	t.Run("unknown type", func(t *testing.T) {
		d := newTestDispatcher(t, &recordingSender{})
		assert.ErrorIs(t, d.SendSubscriptionEmail(ctx, 1, "digest"), ErrUnknownMessageType)
	})

	t.Run("send failure is reported", func(t *testing.T) {
		boom := errors.New("550 mailbox unavailable")
		d := newTestDispatcher(t, &recordingSender{err: boom})
		assert.ErrorIs(t, d.SendSubscriptionEmail(ctx, 1, MessageTypeReminder), boom)
	})
}
