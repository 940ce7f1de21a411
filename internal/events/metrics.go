package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopsubs"

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total events published by type",
		},
		[]string{"event"},
	)

	eventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handler_errors_total",
			Help:      "Total event handler failures by type",
		},
		[]string{"event"},
	)
)

func recordPublished(event string) {
	eventsPublished.WithLabelValues(event).Inc()
}

func recordHandlerError(event string) {
	eventHandlerErrors.WithLabelValues(event).Inc()
}
