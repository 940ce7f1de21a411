package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Scheduler schedules and cancels deferred tasks.
type Scheduler struct {
	repo        Repository
	maxAttempts int
}

// NewScheduler creates a new scheduler.
func NewScheduler(repo Repository, maxAttempts int) *Scheduler {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Scheduler{repo: repo, maxAttempts: maxAttempts}
}

// Schedule arranges for kind to run for the order at runAt. An existing
// task of the same kind for the order is rescheduled, not duplicated.
func (s *Scheduler) Schedule(ctx context.Context, orderID int64, kind TaskKind, runAt time.Time) error {
	task := &Task{
		OrderID:     orderID,
		Kind:        kind,
		RunAt:       runAt,
		MaxAttempts: s.maxAttempts,
	}
	if err := s.repo.Upsert(ctx, task); err != nil {
		return fmt.Errorf("schedule %s for order %d: %w", kind, orderID, err)
	}

	slog.Debug("task scheduled",
		"task_id", task.ID,
		"order_id", orderID,
		"kind", kind,
		"run_at", runAt,
	)
	return nil
}

// Cancel cancels the pending tasks of the given kinds for the order.
func (s *Scheduler) Cancel(ctx context.Context, orderID int64, kinds ...TaskKind) error {
	if len(kinds) == 0 {
		return nil
	}

	n, err := s.repo.Cancel(ctx, orderID, kinds)
	if err != nil {
		return fmt.Errorf("cancel tasks for order %d: %w", orderID, err)
	}
	if n > 0 {
		slog.Debug("tasks cancelled", "order_id", orderID, "count", n)
	}
	return nil
}

// ListByOrder returns every task recorded for the order.
func (s *Scheduler) ListByOrder(ctx context.Context, orderID int64) ([]Task, error) {
	return s.repo.ListByOrder(ctx, orderID)
}
