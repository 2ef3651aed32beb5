package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is an in-process TTL cache. Concurrent loads of one key share a single call.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	flight  singleflight.Group
	onEvict func(key string, value any)
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		s.mu.Lock()
		current, ok := s.entries[key]
		evicted := ok && s.expired(current)
		if evicted {
			delete(s.entries, key)
		}
		onEvict := s.onEvict
		s.mu.Unlock()
		if evicted && onEvict != nil {
			onEvict(key, current.value)
		}
		return nil, false
	}

	return e.value, true
}

// OnEvict registers fn to run for every entry dropped by expiry or Purge. It is
// not called for Delete or for an entry replaced by Set.
func (s *Store) OnEvict(fn func(key string, value any)) {
	s.mu.Lock()
	s.onEvict = fn
	s.mu.Unlock()
}

// Prune drops every expired entry and returns how many went.
func (s *Store) Prune() int {
	s.mu.Lock()
	var dropped map[string]entry
	for key, e := range s.entries {
		if !s.expired(e) {
			continue
		}
		if dropped == nil {
			dropped = make(map[string]entry)
		}
		dropped[key] = e
		delete(s.entries, key)
	}
	onEvict := s.onEvict
	s.mu.Unlock()

	s.evict(onEvict, dropped)
	return len(dropped)
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// DeletePrefix drops every key starting with prefix, e.g. all snapshots of one group.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

// Purge empties the store.
func (s *Store) Purge() {
	s.mu.Lock()
	dropped := s.entries
	s.entries = make(map[string]entry)
	onEvict := s.onEvict
	s.mu.Unlock()

	s.evict(onEvict, dropped)
}

func (s *Store) evict(fn func(key string, value any), dropped map[string]entry) {
	if fn == nil {
		return
	}
	for key, e := range dropped {
		fn(key, e.value)
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && !e.expiresAt.After(s.now())
}
