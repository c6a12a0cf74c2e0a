package repository

import (
	"context"
	"sync"
	"time"
)

const memorySweepThreshold = 10000

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryRateLimitStore keeps fixed-window counters in process memory.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[int64]*rateLimitEntry
	now     func() time.Time
}

func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		entries: make(map[int64]*rateLimitEntry),
		now:     time.Now,
	}
}

func (r *MemoryRateLimitStore) CheckRateLimit(_ context.Context, key int64, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) > memorySweepThreshold {
		r.sweepLocked(now)
	}

	entry, ok := r.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.entries[key] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

func (r *MemoryRateLimitStore) sweepLocked(now time.Time) {
	for k, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, k)
		}
	}
}
