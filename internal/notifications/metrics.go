package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopsubs"

var (
	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "emails_sent_total",
			Help:      "Total subscription emails processed by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	emailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "send_duration_seconds",
			Help:      "Time to hand an email to the mail server",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)
)

func recordEmailSent(messageType MessageType, outcome string) {
	emailsSent.WithLabelValues(string(messageType), outcome).Inc()
}

func recordEmailDuration(messageType MessageType, d time.Duration) {
	emailSendDuration.WithLabelValues(string(messageType)).Observe(d.Seconds())
}
