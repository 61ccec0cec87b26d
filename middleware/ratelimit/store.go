package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Decision is the outcome of one sliding-window check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store enforces a sliding-window quota. Implementations must evaluate
// trim-count-record atomically per key: two concurrent callers at the
// boundary must never both be admitted past the limit.
type Store interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error)
}

// MemoryStore is the in-process implementation, used in tests and
// single-instance deployments. A mutex stands in for the server-side
// atomicity the Redis store gets from its script.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]int64
}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		data: make(map[string][]int64),
	}

	go store.cleanup()

	return store
}

func (s *MemoryStore) Allow(_ context.Context, key string, window time.Duration, max int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	windowMs := window.Milliseconds()
	cutoff := now - windowMs

	entries := s.data[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= max {
		s.data[key] = kept
		// Capacity frees up when the oldest surviving entry ages out.
		return Decision{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   time.UnixMilli(kept[0] + windowMs),
		}, nil
	}

	kept = append(kept, now)
	s.data[key] = kept

	return Decision{
		Allowed:   true,
		Remaining: max - len(kept),
		ResetAt:   time.UnixMilli(now + windowMs),
	}, nil
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now().UnixMilli()

		for key, entries := range s.data {
			live := false
			for _, ts := range entries {
				// Anything younger than an hour may still matter to some window.
				if now-ts < time.Hour.Milliseconds() {
					live = true
					break
				}
			}
			if !live {
				delete(s.data, key)
			}
		}

		s.mu.Unlock()
	}
}

// entryMember builds a set member that stays unique when two requests
// land on the same millisecond.
func entryMember(nowMs int64) string {
	return fmt.Sprintf("%d-%06d", nowMs, rand.Intn(1000000))
}
