package scheduler

import (
	"context"
	"time"
)

// Repository defines the interface for scheduled task storage.
type Repository interface {
	// Upsert creates the task or replaces the pending run of the existing
	// (order_id, kind) task, resetting its attempts.
	Upsert(ctx context.Context, task *Task) error
	Cancel(ctx context.Context, orderID int64, kinds []TaskKind) (int64, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Task, error)

	// FetchDue claims up to limit pending tasks whose run_at has passed and
	// marks them processing.
	FetchDue(ctx context.Context, now time.Time, limit int) ([]*Task, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, err error) error
	MarkForRetry(ctx context.Context, id string, err error, nextAttempt time.Time) error
	RecoverStuck(ctx context.Context, olderThan time.Time) (int64, error)
	Stats(ctx context.Context) (*QueueStats, error)
}
