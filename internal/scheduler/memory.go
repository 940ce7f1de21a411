package scheduler

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and tooling.
type MemoryRepository struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[string]*Task)}
}

func (m *MemoryRepository) find(orderID int64, kind TaskKind) *Task {
	for _, t := range m.tasks {
		if t.OrderID == orderID && t.Kind == kind {
			return t
		}
	}
	return nil
}

// Upsert implements Repository.
func (m *MemoryRepository) Upsert(_ context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	existing := m.find(task.OrderID, task.Kind)
	if existing == nil {
		existing = &Task{
			ID:        uuid.NewString(),
			OrderID:   task.OrderID,
			Kind:      task.Kind,
			CreatedAt: now,
		}
		m.tasks[existing.ID] = existing
	}

	existing.RunAt = task.RunAt
	existing.MaxAttempts = task.MaxAttempts
	existing.Status = TaskStatusPending
	existing.Attempts = 0
	existing.LastError = ""
	existing.UpdatedAt = now

	*task = *existing
	return nil
}

// Cancel implements Repository.
func (m *MemoryRepository) Cancel(_ context.Context, orderID int64, kinds []TaskKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, t := range m.tasks {
		if t.OrderID == orderID && t.Status == TaskStatusPending && slices.Contains(kinds, t.Kind) {
			t.Status = TaskStatusCancelled
			t.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// ListByOrder implements Repository.
func (m *MemoryRepository) ListByOrder(_ context.Context, orderID int64) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Task, 0)
	for _, t := range m.tasks {
		if t.OrderID == orderID {
			out = append(out, *t)
		}
	}
	slices.SortFunc(out, func(a, b Task) int { return a.RunAt.Compare(b.RunAt) })
	return out, nil
}

// FetchDue implements Repository.
func (m *MemoryRepository) FetchDue(_ context.Context, now time.Time, limit int) ([]*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := make([]*Task, 0)
	for _, t := range m.tasks {
		if t.Status == TaskStatusPending && !t.RunAt.After(now) {
			due = append(due, t)
		}
	}
	slices.SortFunc(due, func(a, b *Task) int { return a.RunAt.Compare(b.RunAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]*Task, 0, len(due))
	for _, t := range due {
		t.Status = TaskStatusProcessing
		t.UpdatedAt = time.Now()
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepository) finish(id string, status TaskStatus, err error, runAt *time.Time) {
	t, ok := m.tasks[id]
	if !ok || t.Status != TaskStatusProcessing {
		return
	}
	t.Status = status
	t.Attempts++
	if err != nil {
		t.LastError = err.Error()
	}
	if runAt != nil {
		t.RunAt = *runAt
	}
	t.UpdatedAt = time.Now()
}

// MarkDone implements Repository.
func (m *MemoryRepository) MarkDone(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finish(id, TaskStatusDone, nil, nil)
	return nil
}

// MarkFailed implements Repository.
func (m *MemoryRepository) MarkFailed(_ context.Context, id string, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finish(id, TaskStatusFailed, err, nil)
	return nil
}

// MarkForRetry implements Repository.
func (m *MemoryRepository) MarkForRetry(_ context.Context, id string, err error, nextAttempt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finish(id, TaskStatusPending, err, &nextAttempt)
	return nil
}

// RecoverStuck implements Repository.
func (m *MemoryRepository) RecoverStuck(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, t := range m.tasks {
		if t.Status == TaskStatusProcessing && t.UpdatedAt.Before(olderThan) {
			t.Status = TaskStatusPending
			t.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// Stats implements Repository.
func (m *MemoryRepository) Stats(_ context.Context) (*QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s QueueStats
	for _, t := range m.tasks {
		switch t.Status {
		case TaskStatusPending:
			s.Pending++
		case TaskStatusProcessing:
			s.Processing++
		case TaskStatusDone:
			s.Done++
		case TaskStatusFailed:
			s.Failed++
		case TaskStatusCancelled:
			s.Cancelled++
		}
	}
	return &s, nil
}
