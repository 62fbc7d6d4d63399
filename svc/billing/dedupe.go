package billing

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDeduper records processed webhook event IDs so duplicate deliveries
// cannot double-issue licenses.
type EventDeduper interface {
	// MarkProcessed records the event ID and reports whether this delivery is
	// the first one seen.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

const dedupeKeyPrefix = "billing:event:"

// RedisDeduper implements EventDeduper on Redis, surviving restarts and
// shared across replicas.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a Redis-backed deduper. Entries expire after ttl;
// providers stop redelivering events well within that window.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	return d.client.SetNX(ctx, dedupeKeyPrefix+eventID, 1, d.ttl).Result()
}

// MemoryDeduper implements EventDeduper in process memory, for development
// and single-replica deployments without Redis.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewMemoryDeduper creates an in-memory deduper with the given entry TTL.
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time), ttl: ttl}
}

func (d *MemoryDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for id, expiry := range d.seen {
		if expiry.Before(now) {
			delete(d.seen, id)
		}
	}

	if _, ok := d.seen[eventID]; ok {
		return false, nil
	}
	d.seen[eventID] = now.Add(d.ttl)
	return true, nil
}
