//go:build integration

package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/orders"
	"github.com/bissquit/shop-subscriptions/internal/scheduler"
	"github.com/bissquit/shop-subscriptions/internal/subscriptions"
	"github.com/bissquit/shop-subscriptions/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createProduct(t *testing.T, admin *testutil.Client, name string) int64 {
	t.Helper()

	resp, err := admin.POST("/api/v1/admin/products", map[string]string{"name": name})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var product domain.Product
	testutil.DecodeData(t, resp, &product)
	return product.ID
}

func makeSubscription(t *testing.T, admin *testutil.Client, productID int64, duration domain.SubscriptionDuration) {
	t.Helper()

	resp, err := admin.POSTForm(fmt.Sprintf("/api/v1/admin/products/%d/subscription", productID), url.Values{
		domain.MetaIsSubscriptionProduct: {domain.MetaYes},
		domain.MetaSubscriptionDuration:  {string(duration)},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fields []struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	}
	testutil.DecodeData(t, resp, &fields)
	require.Len(t, fields, 2)
	assert.Equal(t, domain.MetaYes, fields[0].Value)
	assert.Equal(t, string(duration), fields[1].Value)
}

func newCustomer(t *testing.T, firstName string) (*testutil.Client, string) {
	t.Helper()

	email := fmt.Sprintf("%s-%s@example.com", firstName, uuid.NewString()[:8])
	client := newTestClient(t)
	client.Register(t, email, "customer-password", firstName)
	client.LoginAs(t, email, "customer-password")
	return client, email
}

func addToCart(t *testing.T, customer *testutil.Client, productID int64) domain.Cart {
	t.Helper()

	resp, err := customer.POST("/api/v1/me/cart/items", map[string]int64{"product_id": productID})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cart domain.Cart
	testutil.DecodeData(t, resp, &cart)
	return cart
}

func cartProducts(cart domain.Cart) []int64 {
	ids := make([]int64, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

func orderTasks(t *testing.T, admin *testutil.Client, orderID int64) map[scheduler.TaskKind]scheduler.Task {
	t.Helper()

	resp, err := admin.GET(fmt.Sprintf("/api/v1/admin/orders/%d/tasks", orderID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tasks []scheduler.Task
	testutil.DecodeData(t, resp, &tasks)

	byKind := make(map[scheduler.TaskKind]scheduler.Task, len(tasks))
	for _, task := range tasks {
		byKind[task.Kind] = task
	}
	return byKind
}

func setStoredExpiry(t *testing.T, orderID int64, expiry string) {
	t.Helper()

	_, err := testDB.Exec(context.Background(),
		`UPDATE entity_meta SET meta_value = $1, updated_at = NOW()
		 WHERE entity_type = 'order' AND entity_id = $2 AND meta_key = $3`,
		expiry, orderID, domain.MetaSubscriptionExpiry)
	require.NoError(t, err)
}

func TestSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	admin := newAdminClient(t)

	gold := createProduct(t, admin, "Gold Plan")
	makeSubscription(t, admin, gold, domain.DurationOneYear)
	silver := createProduct(t, admin, "Silver Plan")
	makeSubscription(t, admin, silver, domain.DurationOneMonth)
	shirt := createProduct(t, admin, "T-Shirt")

	customer, email := newCustomer(t, "alice")

	// a second subscription replaces the first one, plain products stay
	addToCart(t, customer, silver)
	addToCart(t, customer, shirt)
	cart := addToCart(t, customer, gold)
	assert.ElementsMatch(t, []int64{shirt, gold}, cartProducts(cart))

	resp, err := customer.POST("/api/v1/me/checkout", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order domain.Order
	testutil.DecodeData(t, resp, &order)
	require.Len(t, order.Items, 2)

	resp, err = customer.GET(fmt.Sprintf("/api/v1/me/orders/%d/received", order.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail orders.OrderDetail
	testutil.DecodeData(t, resp, &detail)

	today := time.Now().UTC()
	expiry := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(1, 0, 0)
	expiryDate := expiry.Format(domain.ExpiryLayout)

	require.Len(t, detail.Details, 1)
	assert.Equal(t, "Subscription Expiry Date", detail.Details[0].Label)
	assert.Equal(t, expiryDate, detail.Details[0].Value)

	t.Run("cart is emptied after confirmation", func(t *testing.T) {
		resp, err := customer.GET("/api/v1/me/cart")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var cart domain.Cart
		testutil.DecodeData(t, resp, &cart)
		assert.Empty(t, cart.Lines)
	})

	t.Run("order list shows the expiry column", func(t *testing.T) {
		resp, err := customer.GET("/api/v1/me/orders")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list orders.OrderList
		testutil.DecodeData(t, resp, &list)

		require.NotEmpty(t, list.Columns)
		last := list.Columns[len(list.Columns)-1]
		assert.Equal(t, subscriptions.ColumnSubscriptionExpiry, last.Key)

		require.Len(t, list.Rows, 1)
		assert.Equal(t, expiryDate, list.Rows[0].Cells[subscriptions.ColumnSubscriptionExpiry])
	})

	t.Run("reminder and expiry are scheduled", func(t *testing.T) {
		tasks := orderTasks(t, admin, order.ID)
		require.Len(t, tasks, 2)

		reminder := tasks[scheduler.KindSubscriptionReminder]
		assert.Equal(t, scheduler.TaskStatusPending, reminder.Status)
		assert.True(t, expiry.AddDate(0, 0, -subscriptions.ReminderLeadDays).Equal(reminder.RunAt))

		check := tasks[scheduler.KindSubscriptionExpiry]
		assert.Equal(t, scheduler.TaskStatusPending, check.Status)
		assert.True(t, expiry.Equal(check.RunAt))
	})

	t.Run("revisiting the thank-you view keeps the schedule", func(t *testing.T) {
		before := orderTasks(t, admin, order.ID)

		resp, err := customer.GET(fmt.Sprintf("/api/v1/me/orders/%d/received", order.ID))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		after := orderTasks(t, admin, order.ID)
		for kind, task := range before {
			assert.Equal(t, task.ID, after[kind].ID)
			assert.True(t, task.UpdatedAt.Equal(after[kind].UpdatedAt), "task %s was rescheduled", kind)
		}
	})

	t.Run("renewal link adds the subscription to the cart", func(t *testing.T) {
		resp, err := customer.GET(fmt.Sprintf("/api/v1/me/orders/%d/renewal", order.ID))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var renewal subscriptions.RenewalResponse
		testutil.DecodeData(t, resp, &renewal)
		assert.Equal(t, shopCheckoutURL+"?add-to-cart="+strconv.FormatInt(gold, 10), renewal.URL)
	})

	t.Run("other customers cannot see the order", func(t *testing.T) {
		stranger, _ := newCustomer(t, "mallory")
		resp, err := stranger.GET(fmt.Sprintf("/api/v1/me/orders/%d/subscription", order.ID))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})

	require.NoError(t, mailpit.DeleteAll())

	t.Run("reminder email goes out a week before expiry", func(t *testing.T) {
		reminderAt := expiry.AddDate(0, 0, -subscriptions.ReminderLeadDays).Add(time.Hour)
		testApp.Worker().SetClock(func() time.Time { return reminderAt })
		assert.Equal(t, 1, testApp.Worker().RunDue(ctx))

		full, err := mailpit.WaitForMail(email, "Your subscription will expire in 7 days", 10*time.Second)
		require.NoError(t, err)
		assert.Contains(t, full.HTML, "Hi alice,")
		assert.Contains(t, full.HTML, expiryDate)
		assert.Contains(t, full.HTML, "add-to-cart="+strconv.FormatInt(gold, 10))

		tasks := orderTasks(t, admin, order.ID)
		assert.Equal(t, scheduler.TaskStatusDone, tasks[scheduler.KindSubscriptionReminder].Status)
		assert.Equal(t, scheduler.TaskStatusPending, tasks[scheduler.KindSubscriptionExpiry].Status)
	})

	t.Run("lapsed subscription completes the order", func(t *testing.T) {
		// the enforcer compares the stored date with the real clock
		setStoredExpiry(t, order.ID, time.Now().UTC().AddDate(0, 0, -1).Format(domain.ExpiryLayout))

		testApp.Worker().SetClock(func() time.Time { return expiry.Add(time.Hour) })
		assert.Equal(t, 1, testApp.Worker().RunDue(ctx))

		expired, err := mailpit.WaitForMail(email, "Your subscription has expired", 10*time.Second)
		require.NoError(t, err)
		assert.Contains(t, expired.HTML, "Renew Now")

		resp, err := admin.GET(fmt.Sprintf("/api/v1/admin/orders/%d", order.ID))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Order orders.OrderDetail `json:"order"`
			Notes []domain.OrderNote `json:"notes"`
		}
		testutil.DecodeData(t, resp, &body)
		assert.Equal(t, domain.OrderStatusCompleted, body.Order.Status)

		notes := make([]string, 0, len(body.Notes))
		for _, n := range body.Notes {
			notes = append(notes, n.Note)
		}
		assert.Contains(t, notes, subscriptions.ExpiredNote)

		resp, err = customer.GET(fmt.Sprintf("/api/v1/me/orders/%d/subscription", order.ID))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var standing subscriptions.SubscriptionResponse
		testutil.DecodeData(t, resp, &standing)
		assert.True(t, standing.HasSubscription)
		assert.False(t, standing.Active)
	})

	testApp.Worker().SetClock(time.Now)
}

func TestPlainOrderIsNotScheduled(t *testing.T) {
	admin := newAdminClient(t)
	mug := createProduct(t, admin, "Mug")

	customer, _ := newCustomer(t, "bob")
	addToCart(t, customer, mug)

	resp, err := customer.POST("/api/v1/me/checkout", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order domain.Order
	testutil.DecodeData(t, resp, &order)

	resp, err = customer.GET(fmt.Sprintf("/api/v1/me/orders/%d/received", order.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail orders.OrderDetail
	testutil.DecodeData(t, resp, &detail)
	assert.Empty(t, detail.Details)

	assert.Empty(t, orderTasks(t, admin, order.ID))

	resp, err = customer.GET(fmt.Sprintf("/api/v1/me/orders/%d/renewal", order.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var renewal subscriptions.RenewalResponse
	testutil.DecodeData(t, resp, &renewal)
	assert.Equal(t, shopCheckoutURL+"?add-to-cart="+strconv.FormatInt(mug, 10), renewal.URL)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	customer, _ := newCustomer(t, "carol")

	resp, err := customer.POST("/api/v1/admin/products", map[string]string{"name": "Free Gold"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = newTestClient(t).GET("/api/v1/me/orders")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}
