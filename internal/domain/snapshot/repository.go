package snapshot

import (
	"context"
	"time"
)

// Repository caches snapshots between refresh cycles, keyed by refresh key.
type Repository interface {
	Get(ctx context.Context, key string) (Snapshot, bool, error)
	Put(ctx context.Context, key string, snap Snapshot, ttl time.Duration) error
}
