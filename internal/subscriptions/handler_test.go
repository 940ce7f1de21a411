package subscriptions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(httputil.WithUser(req.Context(), userID, domain.RoleUser))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Routes(t *testing.T) {
	f := newFixture(t, day(2025, 3, 3))
	gold := f.subscriptionProduct(t, "Gold Plan", domain.DurationOneYear)
	order := f.placeOrder(t, aliceID, gold)
	f.setExpiry(t, order.ID, "2025-03-10")

	r := chi.NewRouter()
	NewHandler(f.orders, f.links, f.standings, f.settings).RegisterRoutes(r)
	orderPath := "/me/orders/" + strconv.FormatInt(order.ID, 10)

	t.Run("renewal link", func(t *testing.T) {
		rec := serve(t, r, orderPath+"/renewal", aliceID)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data RenewalResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "https://shop.example.com/checkout/?add-to-cart=1", resp.Data.URL)
	})

	t.Run("subscription standing", func(t *testing.T) {
		rec := serve(t, r, orderPath+"/subscription", aliceID)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data SubscriptionResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, SubscriptionResponse{
			OrderID:         order.ID,
			HasSubscription: true,
			Expiry:          "2025-03-10",
			Active:          true,
		}, resp.Data)
	})

	t.Run("other customer", func(t *testing.T) {
		rec := serve(t, r, orderPath+"/renewal", bobID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		rec := serve(t, r, "/me/orders/999/subscription", aliceID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := serve(t, r, "/me/orders/abc/renewal", aliceID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
