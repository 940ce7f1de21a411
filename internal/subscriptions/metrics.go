package subscriptions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopsubs"

var (
	activationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "activations_total",
			Help:      "Order confirmations processed by outcome",
		},
		[]string{"outcome"},
	)

	expirationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "expirations_total",
			Help:      "Orders completed because their subscription expired",
		},
	)

	remindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "reminders_total",
			Help:      "Reminder tasks processed by outcome",
		},
		[]string{"outcome"},
	)
)
