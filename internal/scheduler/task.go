// Package scheduler runs deferred single-shot tasks bound to an order.
package scheduler

import "time"

// TaskKind identifies what a scheduled task does when it fires.
type TaskKind string

// Task kinds.
const (
	KindSubscriptionReminder TaskKind = "send_subscription_reminder_event"
	KindSubscriptionExpiry   TaskKind = "check_subscription_expiry_event"
)

// TaskStatus represents the status of a scheduled task.
type TaskStatus string

// Task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Task is a deferred run of a handler for one order.
// There is at most one task per (OrderID, Kind).
type Task struct {
	ID          string     `json:"id"`
	OrderID     int64      `json:"order_id"`
	Kind        TaskKind   `json:"kind"`
	RunAt       time.Time  `json:"run_at"`
	Status      TaskStatus `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// QueueStats counts tasks by status.
type QueueStats struct {
	Pending    int
	Processing int
	Done       int
	Failed     int
	Cancelled  int
}
