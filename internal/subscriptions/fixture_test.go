package subscriptions

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/catalog"
	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/meta"
	"github.com/bissquit/shop-subscriptions/internal/notifications"
	"github.com/bissquit/shop-subscriptions/internal/orders"
	"github.com/bissquit/shop-subscriptions/internal/scheduler"
	"github.com/stretchr/testify/require"
)

const (
	aliceID = "0b5e0a6e-6f4f-4b4f-9d1c-3c2d3f0f0a01"
	bobID   = "0b5e0a6e-6f4f-4b4f-9d1c-3c2d3f0f0a02"
)

type sentEmail struct {
	OrderID int64
	Type    notifications.MessageType
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (d *recordingDispatcher) SendSubscriptionEmail(_ context.Context, orderID int64, messageType notifications.MessageType) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, sentEmail{OrderID: orderID, Type: messageType})
	return nil
}

func (d *recordingDispatcher) Sent() []sentEmail {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentEmail(nil), d.sent...)
}

type fixture struct {
	products  *catalog.MemoryRepository
	catalog   *catalog.Service
	meta      *meta.MemoryStore
	orderRepo *orders.MemoryRepository
	orders    *orders.Service
	tasks     *scheduler.MemoryRepository
	scheduler *scheduler.Scheduler
	emails    *recordingDispatcher
	settings  Settings
	standings *Standings
	activator *Activator
	enforcer  *Enforcer
	reminder  *Reminder
	presenter *Presenter
	links     *RenewalLinks
	now       time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{
		products:  catalog.NewMemoryRepository(),
		meta:      meta.NewMemoryStore(),
		orderRepo: orders.NewMemoryRepository(),
		tasks:     scheduler.NewMemoryRepository(),
		emails:    &recordingDispatcher{},
		now:       now,
	}
	f.catalog = catalog.NewService(f.products, f.meta)
	f.orders = orders.NewService(f.orderRepo, f.catalog, nil, nil)
	f.scheduler = scheduler.NewScheduler(f.tasks, 3)
	f.settings = Settings{
		Location:    now.Location(),
		HomeURL:     "https://shop.example.com/",
		CheckoutURL: "https://shop.example.com/checkout/",
		Now:         func() time.Time { return f.now },
	}

	f.standings = NewStandings(f.orders, f.catalog, f.meta, f.settings)
	f.activator = NewActivator(f.orders, f.catalog, f.meta, f.scheduler, f.settings)
	f.enforcer = NewEnforcer(f.standings, f.orders, f.emails, f.settings)
	f.reminder = NewReminder(f.standings, f.emails, f.settings)
	f.presenter = NewPresenter(f.standings)
	f.links = NewRenewalLinks(f.orders, f.catalog, f.settings)
	return f
}

func (f *fixture) subscriptionProduct(t *testing.T, name string, duration domain.SubscriptionDuration) int64 {
	t.Helper()
	id := f.plainProduct(t, name)
	err := f.catalog.SaveSubscriptionSettings(context.Background(), id, url.Values{
		domain.MetaIsSubscriptionProduct: {"on"},
		domain.MetaSubscriptionDuration:  {string(duration)},
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) plainProduct(t *testing.T, name string) int64 {
	t.Helper()
	p := &domain.Product{Name: name}
	require.NoError(t, f.catalog.CreateProduct(context.Background(), p))
	return p.ID
}

func (f *fixture) placeOrder(t *testing.T, customerID string, productIDs ...int64) *domain.Order {
	t.Helper()
	order := &domain.Order{
		CustomerID:       customerID,
		Status:           domain.OrderStatusProcessing,
		BillingEmail:     "alice@example.com",
		BillingFirstName: "Alice",
		CreatedAt:        f.now,
	}
	for _, id := range productIDs {
		order.Items = append(order.Items, domain.OrderItem{ProductID: id, Name: "item", Quantity: 1})
	}
	require.NoError(t, f.orderRepo.CreateOrder(context.Background(), order))
	return order
}

func (f *fixture) expiry(t *testing.T, orderID int64) string {
	t.Helper()
	v, err := meta.Value(context.Background(), f.meta, meta.EntityOrder, orderID, domain.MetaSubscriptionExpiry)
	require.NoError(t, err)
	return v
}

func (f *fixture) setExpiry(t *testing.T, orderID int64, expiry string) {
	t.Helper()
	require.NoError(t, f.meta.Set(context.Background(), meta.EntityOrder, orderID, domain.MetaSubscriptionExpiry, expiry))
}

func (f *fixture) pendingTasks(t *testing.T, orderID int64) []scheduler.Task {
	t.Helper()
	tasks, err := f.scheduler.ListByOrder(context.Background(), orderID)
	require.NoError(t, err)

	pending := make([]scheduler.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == scheduler.TaskStatusPending {
			pending = append(pending, task)
		}
	}
	return pending
}

func (f *fixture) order(t *testing.T, id int64) *domain.Order {
	t.Helper()
	order, err := f.orders.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return order
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
