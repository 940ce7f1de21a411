package orders

import (
	"context"
	"net/http"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/events"
	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrOrderNotFound, Status: http.StatusNotFound, Message: "order not found"},
	{Error: ErrNotOrderOwner, Status: http.StatusNotFound, Message: "order not found"},
	{Error: ErrEmptyCart, Status: http.StatusConflict},
	{Error: ErrNoOrderedItems, Status: http.StatusConflict},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: httputil.ErrInvalidID, Status: http.StatusBadRequest, Message: "invalid order id"},
}

// OrderConfirmedPublisher announces that the buyer reached the thank-you view.
type OrderConfirmedPublisher interface {
	PublishOrderConfirmed(ctx context.Context, e events.OrderConfirmed) error
}

// Handler handles HTTP requests for the orders module.
type Handler struct {
	service   *Service
	publisher OrderConfirmedPublisher
	extension ViewExtension
	location  *time.Location
	validator *validator.Validate
}

// NewHandler creates a new orders handler. ext may be nil.
func NewHandler(service *Service, publisher OrderConfirmedPublisher, ext ViewExtension, loc *time.Location) *Handler {
	return &Handler{
		service:   service,
		publisher: publisher,
		extension: ext,
		location:  loc,
		validator: validator.New(),
	}
}

// RegisterRoutes registers customer order routes (require auth).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/me/checkout", h.Checkout)
	r.Get("/me/orders", h.ListOrders)
	r.Get("/me/orders/{id}", h.GetOrder)
	r.Get("/me/orders/{id}/received", h.OrderReceived)
}

// RegisterAdminRoutes registers order management routes (admin only).
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders/{id}", h.AdminGetOrder)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
}

// UpdateStatusRequest represents the request body for changing order status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing on-hold completed cancelled refunded failed"`
	Note   string `json:"note" validate:"max=1000"`
}

// Checkout handles POST /me/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Checkout(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, order)
}

// ListOrders handles GET /me/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListCustomerOrders(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, BuildList(r.Context(), list, h.extension, h.location))
}

// GetOrder handles GET /me/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.customerOrder(w, r)
	if !ok {
		return
	}

	httputil.Success(w, http.StatusOK, BuildDetail(r.Context(), order, h.extension))
}

// OrderReceived handles GET /me/orders/{id}/received, the thank-you view.
// Every render announces the confirmation; listeners must tolerate repeats.
func (h *Handler) OrderReceived(w http.ResponseWriter, r *http.Request) {
	order, ok := h.customerOrder(w, r)
	if !ok {
		return
	}

	err := h.publisher.PublishOrderConfirmed(r.Context(), events.OrderConfirmed{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
	})
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("order confirmation handlers failed",
			"order_id", order.ID,
			"error", err,
		)
	}

	// reload so the view reflects what the listeners stored
	if reloaded, err := h.service.GetOrder(r.Context(), order.ID); err == nil {
		order = reloaded
	}

	httputil.Success(w, http.StatusOK, BuildDetail(r.Context(), order, h.extension))
}

// AdminGetOrder handles GET /admin/orders/{id}.
func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	notes, err := h.service.ListNotes(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]interface{}{
		"order": BuildDetail(r.Context(), order, h.extension),
		"notes": notes,
	})
}

// UpdateStatus handles PATCH /admin/orders/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	var req UpdateStatusRequest
	if !httputil.DecodeJSON(w, r, &req, h.validator) {
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status), req.Note); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, order)
}

func (h *Handler) customerOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return nil, false
	}

	order, err := h.service.GetCustomerOrder(r.Context(), httputil.GetUserID(r.Context()), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return nil, false
	}
	return order, true
}
