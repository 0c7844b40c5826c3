package cache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"Feedsync/internal/core/querykeys"
	"Feedsync/internal/metrics"
)

// DefaultMaxEntries bounds a session cache when no size is configured
const DefaultMaxEntries = 2048

type entry struct {
	key   querykeys.Key
	value any
}

// MemoryStore is an in-memory Store bounded by an LRU.
// Keys are bucketed by their xxhash and compared structurally inside a bucket.
type MemoryStore struct {
	mu      sync.Mutex
	buckets *simplelru.LRU[uint64, []entry]
	logger  *slog.Logger

	// dropping is set while entries are removed on purpose, so the
	// eviction callback only counts entries pushed out by the size bound
	dropping bool
}

// NewMemoryStore creates a store holding at most maxEntries key hashes
func NewMemoryStore(maxEntries int, logger *slog.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	s := &MemoryStore{logger: logger}
	buckets, err := simplelru.NewLRU[uint64, []entry](maxEntries, func(_ uint64, evicted []entry) {
		if s.dropping {
			return
		}
		metrics.CacheEvictions.Add(float64(len(evicted)))
		for _, e := range evicted {
			s.logger.Debug("cache entry evicted", "key", e.key.String())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	s.buckets = buckets
	return s, nil
}

// Get returns the value at key
func (s *MemoryStore) Get(key querykeys.Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key)
}

// Set replaces the value at key
func (s *MemoryStore) Set(key querykeys.Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(key, value)
}

// Update runs fn under the store lock. fn must not call back into the store.
func (s *MemoryStore) Update(key querykeys.Key, fn func(old any, ok bool) (any, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update(key, fn)
}

// Invalidate removes key
func (s *MemoryStore) Invalidate(key querykeys.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate(key)
}

// InvalidateCategory removes every key of the category
func (s *MemoryStore) InvalidateCategory(category querykeys.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateCategory(category)
}

// Clear drops every entry
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

// Len returns the number of stored keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, h := range s.buckets.Keys() {
		if bucket, ok := s.buckets.Peek(h); ok {
			n += len(bucket)
		}
	}
	return n
}

// Batch holds the store lock for the whole of fn. The Store passed to fn
// must not escape it.
func (s *MemoryStore) Batch(fn func(Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(lockedView{s})
}

func (s *MemoryStore) get(key querykeys.Key) (any, bool) {
	bucket, ok := s.buckets.Get(key.Hash())
	if !ok {
		return nil, false
	}
	for _, e := range bucket {
		if e.key.Equal(key) {
			return e.value, true
		}
	}
	return nil, false
}

func (s *MemoryStore) set(key querykeys.Key, value any) {
	h := key.Hash()
	bucket, _ := s.buckets.Peek(h)

	next := make([]entry, 0, len(bucket)+1)
	replaced := false
	for _, e := range bucket {
		if e.key.Equal(key) {
			next = append(next, entry{key: key, value: value})
			replaced = true
			continue
		}
		next = append(next, e)
	}
	if !replaced {
		next = append(next, entry{key: key, value: value})
	}
	s.buckets.Add(h, next)
}

func (s *MemoryStore) update(key querykeys.Key, fn func(old any, ok bool) (any, bool)) {
	old, ok := s.get(key)
	next, write := fn(old, ok)
	if write {
		s.set(key, next)
	}
}

func (s *MemoryStore) invalidate(key querykeys.Key) {
	h := key.Hash()
	bucket, ok := s.buckets.Peek(h)
	if !ok {
		return
	}

	next := make([]entry, 0, len(bucket))
	for _, e := range bucket {
		if !e.key.Equal(key) {
			next = append(next, e)
		}
	}
	if len(next) == 0 {
		s.dropping = true
		s.buckets.Remove(h)
		s.dropping = false
		return
	}
	s.buckets.Add(h, next)
}

func (s *MemoryStore) invalidateCategory(category querykeys.Category) {
	for _, h := range s.buckets.Keys() {
		bucket, ok := s.buckets.Peek(h)
		if !ok {
			continue
		}
		for _, e := range bucket {
			if e.key.Category == category {
				s.invalidate(e.key)
			}
		}
	}
}

func (s *MemoryStore) clear() {
	s.dropping = true
	s.buckets.Purge()
	s.dropping = false
}

// lockedView is the Store handed to Batch callbacks; the lock is already held
type lockedView struct {
	s *MemoryStore
}

func (v lockedView) Get(key querykeys.Key) (any, bool) { return v.s.get(key) }

func (v lockedView) Set(key querykeys.Key, value any) { v.s.set(key, value) }

func (v lockedView) Update(key querykeys.Key, fn func(old any, ok bool) (any, bool)) {
	v.s.update(key, fn)
}

func (v lockedView) Invalidate(key querykeys.Key) { v.s.invalidate(key) }

func (v lockedView) InvalidateCategory(category querykeys.Category) {
	v.s.invalidateCategory(category)
}

func (v lockedView) Clear() { v.s.clear() }
