package memory

import (
	"context"
	"time"

	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
	"github.com/riskibarqy/clause-watch/internal/platform/cache"
)

const keyPrefix = "snapshot:"

// SnapshotRepository keeps snapshots in process memory.
type SnapshotRepository struct {
	store *cache.Store
}

func NewSnapshotRepository(store *cache.Store) *SnapshotRepository {
	if store == nil {
		store = cache.NewStore(0)
	}
	return &SnapshotRepository{store: store}
}

func (r *SnapshotRepository) Get(ctx context.Context, key string) (snapshot.Snapshot, bool, error) {
	v, ok := r.store.Get(ctx, keyPrefix+key)
	if !ok {
		return snapshot.Snapshot{}, false, nil
	}
	snap, ok := v.(snapshot.Snapshot)
	if !ok {
		return snapshot.Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (r *SnapshotRepository) Put(ctx context.Context, key string, snap snapshot.Snapshot, ttl time.Duration) error {
	r.store.Sweep()
	r.store.SetWithTTL(ctx, keyPrefix+key, snap, ttl)
	return nil
}
