package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	f := newFixture(1, 2)
	r := chi.NewRouter()
	NewHandler(f.carts).RegisterRoutes(r)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(httputil.WithUser(req.Context(), customerID, domain.RoleUser))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/me/cart/items", `{"product_id":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(http.MethodPost, "/me/cart/items", `{"product_id":2,"quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data domain.Cart `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data.Lines, 1)
	assert.Equal(t, int64(2), body.Data.Lines[0].ProductID)
	assert.Equal(t, 1, body.Data.Lines[0].Quantity)

	rec = do(http.MethodPost, "/me/cart/items", `{"product_id":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPost, "/me/cart/items", `{"product_id":77}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodDelete, "/me/cart/items/"+body.Data.Lines[0].Key, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(http.MethodGet, "/me/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lines":[]`)
}
