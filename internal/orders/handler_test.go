package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/events"
	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtension struct{}

func (stubExtension) OrderListColumns(base []Column) []Column {
	return append(base, Column{Key: "extra", Label: "Extra"})
}

func (stubExtension) OrderListCell(_ context.Context, order *domain.Order, column string) (string, bool) {
	if column != "extra" {
		return "", false
	}
	return "x" + strconv.FormatInt(order.ID, 10), true
}

func (stubExtension) OrderDetailLines(_ context.Context, _ *domain.Order) []DetailLine {
	return []DetailLine{{Label: "Extra", Value: "yes"}}
}

func serve(t *testing.T, h http.Handler, method, path, userID string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(httputil.WithUser(req.Context(), userID, domain.RoleUser))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CustomerRoutes(t *testing.T) {
	svc, _ := newTestService(mockCarts{aliceID: {{Key: "a", ProductID: 1, Quantity: 2}}})

	bus := events.NewBus()
	var confirmed []events.OrderConfirmed
	bus.OnOrderConfirmed(func(_ context.Context, e events.OrderConfirmed) error {
		confirmed = append(confirmed, e)
		return nil
	})

	r := chi.NewRouter()
	NewHandler(svc, bus, stubExtension{}, time.UTC).RegisterRoutes(r)

	rec := serve(t, r, http.MethodPost, "/me/checkout", aliceID, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data domain.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	orderPath := "/me/orders/" + strconv.FormatInt(created.Data.ID, 10)

	t.Run("list", func(t *testing.T) {
		rec := serve(t, r, http.MethodGet, "/me/orders", aliceID, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data OrderList `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body.Data.Columns, 5)
		assert.Equal(t, "extra", body.Data.Columns[4].Key)
		require.Len(t, body.Data.Rows, 1)
		assert.Equal(t, "2", body.Data.Rows[0].Cells[ColumnOrderItems])
		assert.Equal(t, "processing", body.Data.Rows[0].Cells[ColumnOrderStatus])
		assert.Equal(t, "x"+strconv.FormatInt(created.Data.ID, 10), body.Data.Rows[0].Cells["extra"])
	})

	t.Run("detail", func(t *testing.T) {
		rec := serve(t, r, http.MethodGet, orderPath, aliceID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"details":[{"label":"Extra","value":"yes"}]`)

		rec = serve(t, r, http.MethodGet, orderPath, bobID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("received publishes on every render", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rec := serve(t, r, http.MethodGet, orderPath+"/received", aliceID, "")
			require.Equal(t, http.StatusOK, rec.Code)
		}
		require.Len(t, confirmed, 2)
		assert.Equal(t, events.OrderConfirmed{OrderID: created.Data.ID, CustomerID: aliceID}, confirmed[0])
	})

	t.Run("checkout with empty cart", func(t *testing.T) {
		rec := serve(t, r, http.MethodPost, "/me/checkout", bobID, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandler_UpdateStatus(t *testing.T) {
	svc, _ := newTestService(mockCarts{aliceID: {{Key: "a", ProductID: 1, Quantity: 1}}})
	order, err := svc.Checkout(context.Background(), aliceID)
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(svc, events.NewBus(), nil, time.UTC).RegisterAdminRoutes(r)
	path := "/orders/" + strconv.FormatInt(order.ID, 10)

	rec := serve(t, r, http.MethodPatch, path+"/status", "", `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, r, http.MethodPatch, path+"/status", "", `{"status":"cancelled","note":"Customer request"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, r, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	assert.Contains(t, rec.Body.String(), "Customer request")
}
