package subscriptions

import (
	"context"
	"net/http"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/orders"
	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: orders.ErrOrderNotFound, Status: http.StatusNotFound, Message: "order not found"},
	{Error: orders.ErrNotOrderOwner, Status: http.StatusNotFound, Message: "order not found"},
	{Error: httputil.ErrInvalidID, Status: http.StatusBadRequest, Message: "invalid order id"},
}

// CustomerOrders loads an order on behalf of its owner.
type CustomerOrders interface {
	GetCustomerOrder(ctx context.Context, customerID string, id int64) (*domain.Order, error)
}

// Handler handles HTTP requests for the subscriptions module.
type Handler struct {
	orders    CustomerOrders
	links     *RenewalLinks
	standings *Standings
	settings  Settings
}

// NewHandler creates a new subscriptions handler.
func NewHandler(customerOrders CustomerOrders, links *RenewalLinks, standings *Standings, settings Settings) *Handler {
	return &Handler{
		orders:    customerOrders,
		links:     links,
		standings: standings,
		settings:  settings,
	}
}

// RegisterRoutes registers customer subscription routes (require auth).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me/orders/{id}/renewal", h.GetRenewal)
	r.Get("/me/orders/{id}/subscription", h.GetSubscription)
}

// RenewalResponse carries the renewal link of an order.
type RenewalResponse struct {
	URL string `json:"url"`
}

// SubscriptionResponse describes the subscription standing of an order.
type SubscriptionResponse struct {
	OrderID         int64  `json:"order_id"`
	HasSubscription bool   `json:"has_subscription"`
	Expiry          string `json:"expiry,omitempty"`
	Active          bool   `json:"active"`
}

// GetRenewal handles GET /me/orders/{id}/renewal.
func (h *Handler) GetRenewal(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}

	httputil.Success(w, http.StatusOK, RenewalResponse{URL: h.links.RenewalURL(r.Context(), order.ID)})
}

// GetSubscription handles GET /me/orders/{id}/subscription.
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}

	st, err := h.standings.Of(r.Context(), order)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	resp := SubscriptionResponse{
		OrderID:         order.ID,
		HasSubscription: st.HasSubscription,
		Active:          st.Active(h.settings.now()),
	}
	if st.Qualifies() {
		resp.Expiry = st.Expiry
	}

	httputil.Success(w, http.StatusOK, resp)
}

func (h *Handler) ownedOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return nil, false
	}

	order, err := h.orders.GetCustomerOrder(r.Context(), httputil.GetUserID(r.Context()), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return nil, false
	}
	return order, true
}
