package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultMaxRetries = 3

// Enqueuer adds tasks to the queue. The request path only enqueues; delivery
// happens on the worker, decoupled from the request lifecycle.
type Enqueuer struct {
	storage Storage
}

// NewEnqueuer creates an Enqueuer backed by the given storage.
func NewEnqueuer(storage Storage) (*Enqueuer, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	return &Enqueuer{storage: storage}, nil
}

// Enqueue marshals the payload and stores a pending task. The task name is
// derived from the payload's type, matching the name handlers register under.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any) error {
	if payload == nil {
		return ErrPayloadNil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload of type %T: %w", payload, err)
	}

	now := time.Now()
	task := &Task{
		ID:          uuid.New(),
		Name:        taskName(payload),
		Payload:     data,
		Status:      TaskStatusPending,
		MaxRetries:  defaultMaxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
	}

	if err := e.storage.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to create task %q: %w", task.Name, err)
	}
	return nil
}

// taskName returns the qualified struct name of the payload, e.g.
// "account.VerificationEmail".
func taskName(payload any) string {
	t := reflect.TypeOf(payload)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.String()
	return strings.TrimPrefix(name, "*")
}
