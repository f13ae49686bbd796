package ratelimit

import (
	"context"
	"time"
)

// Store keeps timestamped hits per key. Keys are opaque to the store;
// limiters namespace them so several limiters can share one Store.
type Store interface {
	// Record adds a hit for key and returns the number of hits inside the
	// trailing window, the new one included.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)

	// Count returns the hits for key inside the trailing window without
	// adding one.
	Count(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
