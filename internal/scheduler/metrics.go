package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopsubs"

var (
	queueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "queue_size",
			Help:      "Number of scheduled tasks by status",
		},
		[]string{"status"},
	)

	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tasks_processed_total",
			Help:      "Total scheduled tasks processed by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Time spent running a task handler",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	tasksFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tasks_fetched_total",
			Help:      "Total tasks claimed from the queue. Sum of tasks_processed_total should match this.",
		},
	)

	tasksRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tasks_recovered_total",
			Help:      "Total stuck processing tasks returned to pending",
		},
	)
)

func recordTaskProcessed(kind TaskKind, outcome string) {
	tasksProcessed.WithLabelValues(string(kind), outcome).Inc()
}

func recordTaskDuration(kind TaskKind, d time.Duration) {
	taskDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func recordTasksFetched(count int) {
	tasksFetched.Add(float64(count))
}

// RecordQueueStats updates queue size metrics.
func RecordQueueStats(stats *QueueStats) {
	queueSize.WithLabelValues(string(TaskStatusPending)).Set(float64(stats.Pending))
	queueSize.WithLabelValues(string(TaskStatusProcessing)).Set(float64(stats.Processing))
	queueSize.WithLabelValues(string(TaskStatusDone)).Set(float64(stats.Done))
	queueSize.WithLabelValues(string(TaskStatusFailed)).Set(float64(stats.Failed))
	queueSize.WithLabelValues(string(TaskStatusCancelled)).Set(float64(stats.Cancelled))
}
