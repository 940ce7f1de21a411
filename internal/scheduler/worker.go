package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/pkg/ctxlog"
)

// HandlerFunc runs a fired task for its order.
type HandlerFunc func(ctx context.Context, orderID int64) error

// WorkerConfig contains worker configuration.
type WorkerConfig struct {
	BatchSize         int
	PollInterval      time.Duration
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	NumWorkers        int
	StuckTimeout      time.Duration
}

// DefaultWorkerConfig returns default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:         50,
		PollInterval:      10 * time.Second,
		InitialBackoff:    30 * time.Second,
		MaxBackoff:        30 * time.Minute,
		BackoffMultiplier: 2.0,
		NumWorkers:        2,
		StuckTimeout:      10 * time.Minute,
	}
}

// Worker claims due tasks and runs the handler registered for their kind.
type Worker struct {
	config   WorkerConfig
	repo     Repository
	handlers map[TaskKind]HandlerFunc
	now      func() time.Time
	clockMu  sync.RWMutex

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWorker creates a new task worker.
func NewWorker(config WorkerConfig, repo Repository) *Worker {
	return &Worker{
		config:   config,
		repo:     repo,
		handlers: make(map[TaskKind]HandlerFunc),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Handle registers the handler for a task kind. Must be called before Start.
func (w *Worker) Handle(kind TaskKind, h HandlerFunc) {
	w.handlers[kind] = h
}

// Start launches worker goroutines and the maintenance loop.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("starting scheduler worker",
		"workers", w.config.NumWorkers,
		"batch_size", w.config.BatchSize,
		"poll_interval", w.config.PollInterval,
		"kinds", len(w.handlers),
	)

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}

	w.wg.Add(1)
	go w.maintain(ctx)
}

// Stop gracefully stops all workers and waits for in-flight tasks.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	slog.Info("scheduler worker stopped")
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processBatch(ctx, workerID)
		}
	}
}

func (w *Worker) maintain(ctx context.Context) {
	defer w.wg.Done()

	interval := w.config.StuckTimeout / 2
	if interval < w.config.PollInterval {
		interval = w.config.PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.recoverStuck(ctx)
			w.refreshStats(ctx)
		}
	}
}

func (w *Worker) recoverStuck(ctx context.Context) {
	n, err := w.repo.RecoverStuck(ctx, w.currentTime().Add(-w.config.StuckTimeout))
	if err != nil {
		slog.Error("failed to recover stuck tasks", "error", err)
		return
	}
	if n > 0 {
		tasksRecovered.Add(float64(n))
		slog.Warn("recovered stuck tasks", "count", n)
	}
}

func (w *Worker) refreshStats(ctx context.Context) {
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		slog.Error("failed to read queue stats", "error", err)
		return
	}
	RecordQueueStats(stats)
}

// RunDue claims and runs one batch of due tasks synchronously and returns
// how many were claimed.
func (w *Worker) RunDue(ctx context.Context) int {
	return w.processBatch(ctx, -1)
}

// SetClock replaces the time source used to find due tasks.
func (w *Worker) SetClock(now func() time.Time) {
	w.clockMu.Lock()
	defer w.clockMu.Unlock()
	w.now = now
}

func (w *Worker) currentTime() time.Time {
	w.clockMu.RLock()
	defer w.clockMu.RUnlock()
	return w.now()
}

func (w *Worker) processBatch(ctx context.Context, workerID int) int {
	tasks, err := w.repo.FetchDue(ctx, w.currentTime(), w.config.BatchSize)
	if err != nil {
		slog.Error("failed to fetch due tasks", "worker", workerID, "error", err)
		return 0
	}

	if len(tasks) == 0 {
		return 0
	}

	slog.Debug("processing tasks", "worker", workerID, "count", len(tasks))
	recordTasksFetched(len(tasks))

	for _, task := range tasks {
		w.processTask(ctx, task)
	}
	return len(tasks)
}

func (w *Worker) processTask(ctx context.Context, task *Task) {
	handler, ok := w.handlers[task.Kind]
	if !ok {
		slog.Error("no handler for task", "task_id", task.ID, "kind", task.Kind)
		if markErr := w.repo.MarkFailed(ctx, task.ID, ErrUnknownKind); markErr != nil {
			slog.Error("failed to mark as failed", "task_id", task.ID, "error", markErr)
		}
		recordTaskProcessed(task.Kind, "failed")
		return
	}

	start := time.Now()
	err := handler(ctxlog.With(ctx, "task_id", task.ID, "kind", task.Kind, "order_id", task.OrderID), task.OrderID)
	duration := time.Since(start)
	recordTaskDuration(task.Kind, duration)

	if err != nil {
		w.handleTaskError(ctx, task, err)
		return
	}

	if err := w.repo.MarkDone(ctx, task.ID); err != nil {
		slog.Error("failed to mark as done", "task_id", task.ID, "error", err)
	}
	recordTaskProcessed(task.Kind, "success")

	slog.Debug("task done",
		"task_id", task.ID,
		"order_id", task.OrderID,
		"kind", task.Kind,
		"duration", duration,
	)
}

func (w *Worker) handleTaskError(ctx context.Context, task *Task, err error) {
	slog.Warn("task failed",
		"task_id", task.ID,
		"order_id", task.OrderID,
		"kind", task.Kind,
		"attempt", task.Attempts+1,
		"max_attempts", task.MaxAttempts,
		"error", err,
	)

	if !isRetryable(err) {
		if markErr := w.repo.MarkFailed(ctx, task.ID, err); markErr != nil {
			slog.Error("failed to mark as failed", "task_id", task.ID, "error", markErr)
		}
		recordTaskProcessed(task.Kind, "failed")
		return
	}

	if task.Attempts+1 >= task.MaxAttempts {
		if markErr := w.repo.MarkFailed(ctx, task.ID, fmt.Errorf("max attempts exceeded: %w", err)); markErr != nil {
			slog.Error("failed to mark as failed", "task_id", task.ID, "error", markErr)
		}
		recordTaskProcessed(task.Kind, "failed")
		return
	}

	nextAttempt := w.calculateNextAttempt(task.Attempts + 1)
	if markErr := w.repo.MarkForRetry(ctx, task.ID, err, nextAttempt); markErr != nil {
		slog.Error("failed to mark for retry", "task_id", task.ID, "error", markErr)
	}
	recordTaskProcessed(task.Kind, "retry")

	slog.Info("task scheduled for retry",
		"task_id", task.ID,
		"next_attempt", nextAttempt,
	)
}

func (w *Worker) calculateNextAttempt(attempt int) time.Time {
	backoff := float64(w.config.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= w.config.BackoffMultiplier
	}

	if backoff > float64(w.config.MaxBackoff) {
		backoff = float64(w.config.MaxBackoff)
	}

	return w.currentTime().Add(time.Duration(backoff))
}
