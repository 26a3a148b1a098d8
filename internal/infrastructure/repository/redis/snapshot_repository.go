package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/valyala/bytebufferpool"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/riskibarqy/clause-watch/internal/domain/snapshot"
)

const defaultKeyPrefix = "clause-watch:snapshot:"

// SnapshotRepository shares snapshots between processes through Redis.
// Values are msgpack encoded.
type SnapshotRepository struct {
	client goredis.Cmdable
	prefix string
}

func NewSnapshotRepository(client goredis.Cmdable, prefix string) *SnapshotRepository {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &SnapshotRepository{client: client, prefix: prefix}
}

func (r *SnapshotRepository) Get(ctx context.Context, key string) (snapshot.Snapshot, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return snapshot.Snapshot{}, false, nil
	}
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("get snapshot key=%s: %w", key, err)
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("decode snapshot key=%s: %w", key, err)
	}
	return snap, true, nil
}

func (r *SnapshotRepository) Put(ctx context.Context, key string, snap snapshot.Snapshot, ttl time.Duration) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := encodeSnapshot(buf, snap); err != nil {
		return fmt.Errorf("encode snapshot key=%s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.prefix+key, buf.Bytes(), ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot key=%s: %w", key, err)
	}
	return nil
}

func encodeSnapshot(buf *bytebufferpool.ByteBuffer, snap snapshot.Snapshot) error {
	enc := msgpack.NewEncoder(buf)
	enc.UseCompactInts(true)
	return enc.Encode(snap)
}

func decodeSnapshot(raw []byte) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		return snapshot.Snapshot{}, err
	}
	return snap, nil
}
