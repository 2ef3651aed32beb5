package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "profiles", nil
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "players:group-1", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "profiles" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", 1)
	if _, ok := store.Get(context.Background(), "k"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(time.Minute)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_DeletePrefixAndPurge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	store.Set(ctx, "players:group-1", 1)
	store.Set(ctx, "players:group-2", 2)
	store.Set(ctx, "clubs:zone-1", 3)

	store.DeletePrefix(ctx, "players:")
	if store.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", store.Len())
	}

	store.Purge()
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	boom := errors.New("boom")
	if _, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("errors must not be cached")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")

func TestStore_PruneAndPurgeRunEvictHook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var evicted []string
	store.OnEvict(func(key string, _ any) { evicted = append(evicted, key) })

	store.Set(ctx, "stale", 1)
	now = now.Add(30 * time.Second)
	store.Set(ctx, "fresh", 2)
	now = now.Add(45 * time.Second)

	if got := store.Prune(); got != 1 {
		t.Fatalf("expected one pruned entry, got %d", got)
	}
	if len(evicted) != 1 || evicted[0] != "stale" {
		t.Fatalf("unexpected evictions after prune: %v", evicted)
	}

	store.Delete(ctx, "missing")
	store.Purge()
	if len(evicted) != 2 || evicted[1] != "fresh" {
		t.Fatalf("purge should evict the remaining entry, got %v", evicted)
	}
}

func TestStore_GetEvictsExpiredEntry(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var evicted atomic.Int32
	store.OnEvict(func(string, any) { evicted.Add(1) })
	store.Set(context.Background(), "k", 1)

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if got := evicted.Load(); got != 1 {
		t.Fatalf("expected one eviction, got %d", got)
	}
}
