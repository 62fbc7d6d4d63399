package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thegrail/grail-backend/pkg/logger"
)

const (
	defaultPollInterval = time.Second
	defaultRetryDelay   = 30 * time.Second
)

// HandlerFunc processes a raw task payload.
type HandlerFunc func(ctx context.Context, payload []byte) error

// NewHandler adapts a typed function into a task name and HandlerFunc pair.
// The name matches what Enqueuer derives from the payload type, so
// registration stays in sync with enqueueing by construction.
func NewHandler[T any](fn func(ctx context.Context, payload T) error) (string, HandlerFunc) {
	var zero T
	return taskName(zero), func(ctx context.Context, raw []byte) error {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload into %T: %w", payload, err)
		}
		return fn(ctx, payload)
	}
}

// Worker polls storage for due tasks and dispatches them to registered
// handlers. Failed tasks are retried with a fixed delay until MaxRetries is
// exhausted, then marked failed.
type Worker struct {
	storage      Storage
	log          *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithPollInterval sets how often the worker checks for due tasks.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithRetryDelay sets the delay before a failed task becomes due again.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.retryDelay = d
		}
	}
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWorker creates a Worker backed by the given storage.
func NewWorker(storage Storage, opts ...WorkerOption) (*Worker, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	w := &Worker{
		storage:      storage,
		log:          logger.NewDiscard(),
		pollInterval: defaultPollInterval,
		retryDelay:   defaultRetryDelay,
		handlers:     make(map[string]HandlerFunc),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Register binds a handler to a task name. Registering the same name twice
// returns ErrHandlerAlreadyRegistered.
func (w *Worker) Register(name string, fn HandlerFunc) error {
	if fn == nil {
		return ErrHandlerNil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrHandlerAlreadyRegistered, name)
	}
	w.handlers[name] = fn
	return nil
}

// Run processes tasks until the context is cancelled. It always returns
// ctx.Err() and is intended to run in its own goroutine (or errgroup).
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and processes tasks until the queue reports empty.
func (w *Worker) drain(ctx context.Context) {
	for {
		task, err := w.storage.ClaimPending(ctx, time.Now())
		if err != nil {
			return
		}
		w.process(ctx, task)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (w *Worker) process(ctx context.Context, task *Task) {
	w.mu.RLock()
	handler, ok := w.handlers[task.Name]
	w.mu.RUnlock()

	if !ok {
		msg := "no handler registered"
		task.Status = TaskStatusFailed
		task.Error = &msg
		w.log.Error("dropping task without handler", slog.String("task", task.Name))
		_ = w.storage.UpdateTask(ctx, task)
		return
	}

	if err := handler(ctx, task.Payload); err != nil {
		errMsg := err.Error()
		task.Error = &errMsg
		task.RetryCount++
		if task.RetryCount > task.MaxRetries {
			task.Status = TaskStatusFailed
			w.log.Error("task failed permanently",
				slog.String("task", task.Name),
				slog.Int("retries", int(task.RetryCount)),
				logger.Error(err),
			)
		} else {
			task.Status = TaskStatusPending
			task.ScheduledAt = time.Now().Add(w.retryDelay)
			w.log.Warn("task failed, will retry",
				slog.String("task", task.Name),
				slog.Int("attempt", int(task.RetryCount)),
				logger.Error(err),
			)
		}
		_ = w.storage.UpdateTask(ctx, task)
		return
	}

	task.Status = TaskStatusCompleted
	task.Error = nil
	_ = w.storage.UpdateTask(ctx, task)
}
