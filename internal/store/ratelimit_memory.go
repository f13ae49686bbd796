package store

import (
	"context"
	"sync"
	"time"
)

type window struct {
	hits   []time.Time
	length time.Duration
}

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// It is suitable for a single server process.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, length time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	w, ok := s.windows[key]
	if !ok {
		w = &window{}
		s.windows[key] = w
	}

	w.length = length
	w.hits = append(prune(w.hits, now.Add(-length)), now)

	return int64(len(w.hits)), nil
}

func (s *RateLimitMemoryStore) Count(_ context.Context, key string, length time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		return 0, nil
	}

	w.hits = prune(w.hits, s.now().Add(-length))

	return int64(len(w.hits)), nil
}

// Sweep forgets keys without hits inside their window and returns how many
// were dropped. Without it, one-off clients would accumulate forever.
func (s *RateLimitMemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0

	for key, w := range s.windows {
		w.hits = prune(w.hits, now.Add(-w.length))
		if len(w.hits) == 0 {
			delete(s.windows, key)
			dropped++
		}
	}

	return dropped
}

// prune drops hits at or before cutoff. Hits are appended in time order.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}

	return append(hits[:0], hits[i:]...)
}
