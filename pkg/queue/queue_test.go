package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrail/grail-backend/pkg/queue"
)

type greetTask struct {
	Name string `json:"name"`
}

func TestEnqueueAndProcess(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	worker, err := queue.NewWorker(storage, queue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)

	var processed atomic.Int32
	name, handler := queue.NewHandler(func(ctx context.Context, payload greetTask) error {
		assert.Equal(t, "alice", payload.Name)
		processed.Add(1)
		return nil
	})
	require.NoError(t, worker.Register(name, handler))

	require.NoError(t, enq.Enqueue(context.Background(), greetTask{Name: "alice"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	require.Eventually(t, func() bool { return processed.Load() == 1 }, time.Second, 10*time.Millisecond)

	for _, task := range storage.Snapshot() {
		assert.Equal(t, queue.TaskStatusCompleted, task.Status)
	}
}

func TestWorkerRetriesUntilBudgetExhausted(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	worker, err := queue.NewWorker(storage,
		queue.WithPollInterval(5*time.Millisecond),
		queue.WithRetryDelay(time.Millisecond),
	)
	require.NoError(t, err)

	var attempts atomic.Int32
	name, handler := queue.NewHandler(func(ctx context.Context, payload greetTask) error {
		attempts.Add(1)
		return errors.New("smtp unavailable")
	})
	require.NoError(t, worker.Register(name, handler))

	require.NoError(t, enq.Enqueue(context.Background(), greetTask{Name: "bob"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// First attempt plus three retries.
	require.Eventually(t, func() bool { return attempts.Load() == 4 }, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		snapshot := storage.Snapshot()
		return len(snapshot) == 1 && snapshot[0].Status == queue.TaskStatusFailed
	}, time.Second, 5*time.Millisecond)
}

func TestEnqueueValidation(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	assert.ErrorIs(t, enq.Enqueue(context.Background(), nil), queue.ErrPayloadNil)

	_, err = queue.NewEnqueuer(nil)
	assert.ErrorIs(t, err, queue.ErrStorageNil)
}

func TestRegisterDuplicateHandler(t *testing.T) {
	t.Parallel()

	worker, err := queue.NewWorker(queue.NewMemoryStorage())
	require.NoError(t, err)

	name, handler := queue.NewHandler(func(ctx context.Context, payload greetTask) error { return nil })
	require.NoError(t, worker.Register(name, handler))
	assert.ErrorIs(t, worker.Register(name, handler), queue.ErrHandlerAlreadyRegistered)
}

func TestMemoryStorageClaimIsExclusive(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	require.NoError(t, enq.Enqueue(context.Background(), greetTask{Name: "carol"}))

	first, err := storage.ClaimPending(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, queue.TaskStatusProcessing, first.Status)

	_, err = storage.ClaimPending(context.Background(), time.Now())
	assert.ErrorIs(t, err, queue.ErrNoPendingTasks)
}
