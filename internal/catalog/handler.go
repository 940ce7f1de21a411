// Package catalog provides products and their subscription settings.
package catalog

import (
	"context"
	"net/http"

	"github.com/bissquit/shop-subscriptions/internal/domain"
	"github.com/bissquit/shop-subscriptions/internal/events"
	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrProductNotFound, Status: http.StatusNotFound, Message: "product not found"},
	{Error: ErrInvalidDuration, Status: http.StatusBadRequest},
	{Error: httputil.ErrInvalidID, Status: http.StatusBadRequest, Message: "invalid product id"},
}

// ProductSavedPublisher announces product saves to interested extensions.
type ProductSavedPublisher interface {
	PublishProductSaved(ctx context.Context, e events.ProductSaved) error
}

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service   *Service
	publisher ProductSavedPublisher
	validator *validator.Validate
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service, publisher ProductSavedPublisher) *Handler {
	return &Handler{
		service:   service,
		publisher: publisher,
		validator: validator.New(),
	}
}

// RegisterRoutes registers product routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Get("/{id}/subscription-fields", h.GetSubscriptionFields)
		r.Post("/{id}/subscription", h.SaveSubscription)
	})
}

// CreateProductRequest represents the request body for creating a product.
type CreateProductRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CreateProduct handles POST /products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !httputil.DecodeJSON(w, r, &req, h.validator) {
		return
	}

	product := &domain.Product{Name: req.Name}
	if err := h.service.CreateProduct(r.Context(), product); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, product)
}

// GetProduct handles GET /products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, product)
}

// GetSubscriptionFields handles GET /products/{id}/subscription-fields.
func (h *Handler) GetSubscriptionFields(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	fields, err := h.service.SubscriptionFields(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, fields)
}

// SaveSubscription handles POST /products/{id}/subscription.
// The body is the form-encoded product edit form.
func (h *Handler) SaveSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	if err := r.ParseForm(); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid form")
		return
	}

	if _, err := h.service.GetProduct(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	if err := h.publisher.PublishProductSaved(r.Context(), events.ProductSaved{ProductID: id, Form: r.PostForm}); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	fields, err := h.service.SubscriptionFields(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, fields)
}
