// Package ratelimit provides rate limiter implementations for the platform API.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bnema/previewgate/internal/boundaries/out"
)

// Ensure MemoryStore implements out.RateLimiter.
var _ out.RateLimiter = (*MemoryStore)(nil)

// idleEviction is how long a key may stay unused before its limiter is dropped.
const idleEviction = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore is a per-process token bucket limiter. Each key gets its own
// bucket; buckets idle for longer than idleEviction are swept lazily.
type MemoryStore struct {
	mu        sync.Mutex
	limiters  map[string]*entry
	rps       float64
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore creates a new in-memory rate limiter store.
func NewMemoryStore(rps float64, burst int) *MemoryStore {
	return &MemoryStore{
		limiters:  make(map[string]*entry),
		rps:       rps,
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow checks if a request identified by key is allowed.
func (s *MemoryStore) Allow(_ context.Context, key string) bool {
	return s.getLimiter(key).AllowN(s.now(), 1)
}

// AllowN checks if n requests identified by key are allowed.
func (s *MemoryStore) AllowN(_ context.Context, key string, n int) bool {
	return s.getLimiter(key).AllowN(s.now(), n)
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

func (s *MemoryStore) getLimiter(key string) *rate.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > idleEviction {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) > idleEviction {
				delete(s.limiters, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}
