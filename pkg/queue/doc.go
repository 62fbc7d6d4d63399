// Package queue implements a small in-process task queue used to decouple
// best-effort background work from the request lifecycle.
//
// The request path enqueues a typed payload; a worker goroutine claims due
// tasks and dispatches them to handlers registered per payload type. Failed
// tasks are retried with a fixed delay up to a retry budget. Storage is
// pluggable; the in-memory implementation is sufficient for fire-and-forget
// email dispatch where losing tasks on restart is acceptable.
package queue
