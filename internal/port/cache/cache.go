// Package cache defines the port interface for expiring key-value storage.
// Its main consumer is alert deduplication, which keys on run id and status.
package cache

import (
	"context"
	"time"
)

// Cache stores byte values under string keys. Entries expire after their
// TTL; Get reports a miss for both absent and expired keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
