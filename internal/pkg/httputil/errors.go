package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
)

// ErrorMapping maps a sentinel error to a status. An empty Message exposes
// the error text.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// HandleError writes the response of the first mapping err matches.
// Unmapped errors are logged and answered with 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	logger := ctxlog.FromContext(ctx)

	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}

		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		if m.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "status", m.Status, "error", err)
		} else {
			logger.Debug("request rejected", "status", m.Status, "error", err)
		}
		Error(w, m.Status, msg)
		return
	}

	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
