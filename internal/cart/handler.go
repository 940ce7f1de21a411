package cart

import (
	"net/http"

	"github.com/bissquit/shop-subscriptions/internal/catalog"
	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrCartLineNotFound, Status: http.StatusNotFound},
	{Error: ErrAddToCartRejected, Status: http.StatusConflict},
	{Error: ErrInvalidQuantity, Status: http.StatusBadRequest},
	{Error: catalog.ErrProductNotFound, Status: http.StatusNotFound, Message: "product not found"},
}

// Handler handles HTTP requests for the cart module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new cart handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers cart routes (require auth).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/me/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Delete("/items/{key}", h.RemoveItem)
	})
}

// AddItemRequest represents the request body for adding a product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,gt=0,lte=1000"`
}

// GetCart handles GET /me/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, c)
}

// AddItem handles POST /me/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !httputil.DecodeJSON(w, r, &req, h.validator) {
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	customerID := httputil.GetUserID(r.Context())
	if _, err := h.service.AddItem(r.Context(), customerID, req.ProductID, req.Quantity); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	c, err := h.service.Get(r.Context(), customerID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, c)
}

// RemoveItem handles DELETE /me/cart/items/{key}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.service.RemoveItem(r.Context(), httputil.GetUserID(r.Context()), key); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.NoContent(w)
}
