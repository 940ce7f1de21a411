package scheduler

import (
	"net/http"

	"github.com/bissquit/shop-subscriptions/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: httputil.ErrInvalidID, Status: http.StatusBadRequest, Message: "invalid order id"},
}

// Handler exposes scheduled tasks to administrators.
type Handler struct {
	scheduler *Scheduler
}

// NewHandler creates a new scheduler handler.
func NewHandler(s *Scheduler) *Handler {
	return &Handler{scheduler: s}
}

// RegisterRoutes registers task routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/orders/{id}/tasks", h.ListOrderTasks)
}

// ListOrderTasks handles GET /orders/{id}/tasks.
func (h *Handler) ListOrderTasks(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	tasks, err := h.scheduler.ListByOrder(r.Context(), orderID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, tasks)
}
