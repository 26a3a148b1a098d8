package cache

import (
	"context"
	"testing"
	"time"
)

func TestStore_ExpiresPerEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Set(ctx, "short", "a")
	store.SetWithTTL(ctx, "long", "b", time.Hour)
	store.SetWithTTL(ctx, "forever", "c", 0)

	now = now.Add(2 * time.Minute)

	if _, ok := store.Get(ctx, "short"); ok {
		t.Fatalf("expected default-ttl entry to expire")
	}
	if v, ok := store.Get(ctx, "long"); !ok || v != "b" {
		t.Fatalf("expected long entry to survive, got %v %v", v, ok)
	}

	now = now.Add(24 * time.Hour)
	if v, ok := store.Get(ctx, "forever"); !ok || v != "c" {
		t.Fatalf("expected non-expiring entry to survive, got %v %v", v, ok)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected sweep to remove the long entry, removed %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", store.Len())
	}
}

func TestStore_IgnoresEmptyKey(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	store.Set(context.Background(), "", "value")
	if store.Len() != 0 {
		t.Fatalf("expected empty key to be ignored")
	}
	if _, ok := store.Get(context.Background(), ""); ok {
		t.Fatalf("expected miss for empty key")
	}
}
