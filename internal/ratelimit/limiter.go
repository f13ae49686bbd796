package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request from the given key should be allowed.
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// FailureLimiter counts only failed attempts. A key is blocked once its
// failures inside the window reach the limit; successful attempts cost
// nothing.
type FailureLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
}

// SlidingWindowLimiter implements rate limiting using a sliding window
// algorithm. Keys are namespaced by the limiter's name so several limiters
// can share one Store.
type SlidingWindowLimiter struct {
	store  Store
	name   string
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(store Store, name string, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		name:   name,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Record(ctx, l.key(key), l.window)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}

// Blocked reports whether key already used up its limit, without counting
// the current call.
func (l *SlidingWindowLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Count(ctx, l.key(key), l.window)
	if err != nil {
		return false, err
	}

	return count >= l.limit, nil
}

func (l *SlidingWindowLimiter) RecordFailure(ctx context.Context, key string) error {
	_, err := l.store.Record(ctx, l.key(key), l.window)

	return err
}

func (l *SlidingWindowLimiter) key(key string) string {
	return l.name + ":" + key
}

var (
	_ Limiter        = (*SlidingWindowLimiter)(nil)
	_ FailureLimiter = (*SlidingWindowLimiter)(nil)
)
