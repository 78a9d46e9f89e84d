package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Store counts requests per key within fixed windows. Implementations must
// create the counter with the given window on first increment and report
// when the window resets.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter enforces a max-requests-per-window policy over a Store. Each call
// site owns its own prefix so IP and email limits never share counters.
type Limiter struct {
	store  Store
	prefix string
	max    int
	window time.Duration
}

// NewLimiter creates a Limiter with the given policy.
func NewLimiter(store Store, prefix string, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, prefix: prefix, max: max, window: window}
}

// Check records one request for the identifier and decides whether it is
// within the limit. Store failures fail open: blocking all traffic on a
// counter outage is worse than briefly losing the limit.
func (l *Limiter) Check(ctx context.Context, identifier string) Decision {
	key := fmt.Sprintf("%s:%s", l.prefix, identifier)

	count, resetAt, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		slog.Error("rate limit store unavailable, failing open", "prefix", l.prefix, "error", err)
		return Decision{Allowed: true}
	}

	if count > l.max {
		retry := time.Until(resetAt)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, RetryAfter: retry}
	}

	return Decision{Allowed: true}
}
