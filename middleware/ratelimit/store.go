package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store is the shared counter backend. Incr atomically increments the counter
// for key within its current window and returns the new count; the counter
// expires on its own once the window passes.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// MemoryStore is a process-local Store for development and tests. Buckets
// expire lazily and the map is swept when it grows past a threshold.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count   int64
	resetAt time.Time
}

const memorySweepThreshold = 4096

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
	}
}

// Incr implements Store.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++

	if len(s.buckets) > memorySweepThreshold {
		s.sweep(now)
	}

	return b.count, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for key, b := range s.buckets {
		if now.After(b.resetAt) {
			delete(s.buckets, key)
		}
	}
}
