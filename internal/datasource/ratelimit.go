package datasource

import (
	"context"
	"sync"
	"time"
)

// SourceLimit describes how fast one upstream may be polled. Every source
// carries its own limit; scraped HTML pages tolerate far less traffic than
// the JSON quote endpoints.
type SourceLimit struct {
	Burst int           // tokens available at rest
	Every time.Duration // one token refilled per interval
}

// Throttle is a token bucket guarding a single upstream. All requests to a
// source pass through its throttle, so overlapping scans and detail fetches
// still respect the source's limit.
type Throttle struct {
	mu     sync.Mutex
	limit  SourceLimit
	tokens int
	last   time.Time
}

// NewThrottle creates a full bucket for the given limit.
func NewThrottle(limit SourceLimit) *Throttle {
	return &Throttle{
		limit:  limit,
		tokens: limit.Burst,
		last:   time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		t.refill(time.Now())
		if t.tokens > 0 {
			t.tokens--
			t.mu.Unlock()
			return nil
		}
		// Sleep until the next token is due instead of polling.
		wait := t.limit.Every - time.Since(t.last)
		t.mu.Unlock()

		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill credits tokens for the elapsed intervals. Must be called with mu
// held. The bucket never exceeds its burst size.
func (t *Throttle) refill(now time.Time) {
	elapsed := now.Sub(t.last)
	if elapsed < t.limit.Every {
		return
	}
	n := int(elapsed / t.limit.Every)
	t.tokens += n
	if t.tokens > t.limit.Burst {
		t.tokens = t.limit.Burst
	}
	t.last = t.last.Add(time.Duration(n) * t.limit.Every)
}
