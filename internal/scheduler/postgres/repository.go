// Package postgres provides PostgreSQL implementation of the scheduler repository.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/scheduler"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, order_id, kind, run_at, status, attempts, max_attempts, last_error, created_at, updated_at`

// Repository implements the scheduler.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert creates a task or reschedules the existing (order_id, kind) task.
func (r *Repository) Upsert(ctx context.Context, task *scheduler.Task) error {
	query := `
		INSERT INTO scheduled_tasks (id, order_id, kind, run_at, max_attempts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id, kind) DO UPDATE SET
			run_at = EXCLUDED.run_at,
			max_attempts = EXCLUDED.max_attempts,
			status = 'pending',
			attempts = 0,
			last_error = '',
			updated_at = NOW()
		RETURNING ` + taskColumns

	row := r.db.QueryRow(ctx, query,
		uuid.NewString(),
		task.OrderID,
		string(task.Kind),
		task.RunAt,
		task.MaxAttempts,
	)
	saved, err := scanTask(row)
	if err != nil {
		return fmt.Errorf("upsert scheduled task: %w", err)
	}
	*task = *saved
	return nil
}

// Cancel marks pending tasks of the given kinds as cancelled.
func (r *Repository) Cancel(ctx context.Context, orderID int64, kinds []scheduler.TaskKind) (int64, error) {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}

	query := `
		UPDATE scheduled_tasks
		SET status = 'cancelled', updated_at = NOW()
		WHERE order_id = $1 AND kind = ANY($2) AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, orderID, names)
	if err != nil {
		return 0, fmt.Errorf("cancel scheduled tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByOrder returns the tasks of an order ordered by run time.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]scheduler.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM scheduled_tasks WHERE order_id = $1 ORDER BY run_at, kind`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]scheduler.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled tasks: %w", err)
	}
	return tasks, nil
}

// FetchDue claims due pending tasks. Concurrent workers skip rows already
// locked by another claim.
func (r *Repository) FetchDue(ctx context.Context, now time.Time, limit int) ([]*scheduler.Task, error) {
	query := `
		UPDATE scheduled_tasks
		SET status = 'processing', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM scheduled_tasks
			WHERE status = 'pending' AND run_at <= $1
			ORDER BY run_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + taskColumns

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*scheduler.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due tasks: %w", err)
	}
	return tasks, nil
}

// MarkDone completes a processing task. A task rescheduled while it was
// running stays pending.
func (r *Repository) MarkDone(ctx context.Context, id string) error {
	query := `
		UPDATE scheduled_tasks
		SET status = 'done', attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("mark task done: %w", err)
	}
	return nil
}

// MarkFailed records a terminal failure of a processing task.
func (r *Repository) MarkFailed(ctx context.Context, id string, taskErr error) error {
	query := `
		UPDATE scheduled_tasks
		SET status = 'failed', attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	if _, err := r.db.Exec(ctx, query, id, errorText(taskErr)); err != nil {
		return fmt.Errorf("mark task failed: %w", err)
	}
	return nil
}

// MarkForRetry returns a processing task to pending at nextAttempt.
func (r *Repository) MarkForRetry(ctx context.Context, id string, taskErr error, nextAttempt time.Time) error {
	query := `
		UPDATE scheduled_tasks
		SET status = 'pending', attempts = attempts + 1, last_error = $2, run_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	if _, err := r.db.Exec(ctx, query, id, errorText(taskErr), nextAttempt); err != nil {
		return fmt.Errorf("mark task for retry: %w", err)
	}
	return nil
}

// RecoverStuck returns tasks left processing since before olderThan to pending.
func (r *Repository) RecoverStuck(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE scheduled_tasks
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'processing' AND updated_at < $1
	`
	tag, err := r.db.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("recover stuck tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Stats counts tasks by status.
func (r *Repository) Stats(ctx context.Context) (*scheduler.QueueStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'done'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM scheduled_tasks
	`
	var s scheduler.QueueStats
	err := r.db.QueryRow(ctx, query).Scan(&s.Pending, &s.Processing, &s.Done, &s.Failed, &s.Cancelled)
	if err != nil {
		return nil, fmt.Errorf("get queue stats: %w", err)
	}
	return &s, nil
}

func scanTask(row pgx.Row) (*scheduler.Task, error) {
	var (
		t      scheduler.Task
		kind   string
		status string
	)
	err := row.Scan(
		&t.ID,
		&t.OrderID,
		&kind,
		&t.RunAt,
		&status,
		&t.Attempts,
		&t.MaxAttempts,
		&t.LastError,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Kind = scheduler.TaskKind(kind)
	t.Status = scheduler.TaskStatus(status)
	return &t, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
