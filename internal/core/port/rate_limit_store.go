package port

import (
	"context"
	"time"
)

// RateLimitStore tracks attempts within a sliding window per key.
type RateLimitStore interface {
	RecordAttempt(ctx context.Context, key string, at time.Time) error
	CountAttempts(ctx context.Context, key string, window time.Duration, now time.Time) (int, error)
	TrimWindow(ctx context.Context, key string, window time.Duration, now time.Time) error
	OldestAttempt(ctx context.Context, key string, window time.Duration, now time.Time) (time.Time, bool, error)
}
