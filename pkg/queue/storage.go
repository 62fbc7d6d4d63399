package queue

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Storage persists queued tasks. Implementations must make ClaimPending
// safe for concurrent workers: a task may be claimed by at most one worker.
type Storage interface {
	CreateTask(ctx context.Context, task *Task) error
	// ClaimPending atomically moves the oldest due pending task to the
	// processing state and returns it. Returns ErrNoPendingTasks when the
	// queue is drained.
	ClaimPending(ctx context.Context, now time.Time) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
}

// MemoryStorage is an in-process Storage implementation. Tasks do not survive
// restarts, which is acceptable for best-effort work like email dispatch.
type MemoryStorage struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewMemoryStorage creates an empty in-memory task store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{tasks: make(map[string]*Task)}
}

func (s *MemoryStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrTaskNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID.String()]; exists {
		return ErrTaskAlreadyExists
	}
	cp := *task
	s.tasks[task.ID.String()] = &cp
	return nil
}

func (s *MemoryStorage) ClaimPending(ctx context.Context, now time.Time) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Task
	for _, t := range s.tasks {
		if t.Status == TaskStatusPending && !t.ScheduledAt.After(now) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil, ErrNoPendingTasks
	}

	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })

	claimed := due[0]
	claimed.Status = TaskStatusProcessing
	cp := *claimed
	return &cp, nil
}

func (s *MemoryStorage) UpdateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrTaskNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID.String()]; !exists {
		return ErrTaskNotFound
	}
	cp := *task
	s.tasks[task.ID.String()] = &cp
	return nil
}

// Snapshot returns a copy of all stored tasks, for tests and diagnostics.
func (s *MemoryStorage) Snapshot() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out
}
