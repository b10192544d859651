package cache

import (
	"context"
	"time"
)

// IdempotencyStore remembers which client-supplied idempotency keys have
// already been accepted, so a POS terminal resubmitting a posting after a
// network failure does not create a second sale.
type IdempotencyStore interface {
	// MarkProcessed atomically claims the key with a TTL. It returns true
	// if the key was newly claimed and false if a prior request holds it.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees a claimed key so the client may retry, used when the
	// posting behind the key failed.
	Release(ctx context.Context, key string) error
	Close() error
}
