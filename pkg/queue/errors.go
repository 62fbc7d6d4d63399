package queue

import "errors"

var (
	ErrStorageNil               = errors.New("queue: storage is nil")
	ErrPayloadNil               = errors.New("queue: payload is nil")
	ErrTaskNil                  = errors.New("queue: task is nil")
	ErrTaskNotFound             = errors.New("queue: task not found")
	ErrTaskAlreadyExists        = errors.New("queue: task already exists")
	ErrNoPendingTasks           = errors.New("queue: no pending tasks")
	ErrHandlerNil               = errors.New("queue: handler is nil")
	ErrHandlerAlreadyRegistered = errors.New("queue: handler already registered")
)
