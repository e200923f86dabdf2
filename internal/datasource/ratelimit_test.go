package datasource

import (
	"context"
	"testing"
	"time"
)

func TestThrottleBurst(t *testing.T) {
	tr := NewThrottle(SourceLimit{Burst: 3, Every: time.Hour})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := tr.Wait(ctx); err != nil {
			t.Fatalf("burst token %d: %v", i, err)
		}
	}
	if tr.tokens != 0 {
		t.Fatalf("bucket should be drained, %d tokens left", tr.tokens)
	}
}

func TestThrottleWaitCancellation(t *testing.T) {
	tr := NewThrottle(SourceLimit{Burst: 1, Every: time.Hour})
	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("first token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := tr.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded while throttled, got %v", err)
	}
}

func TestThrottleRefill(t *testing.T) {
	tr := NewThrottle(SourceLimit{Burst: 2, Every: 10 * time.Millisecond})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := tr.Wait(ctx); err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
	}

	// A drained bucket refills after the interval.
	start := time.Now()
	if err := tr.Wait(ctx); err != nil {
		t.Fatalf("refilled token: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("refill took too long: %v", elapsed)
	}
}

func TestThrottleNeverExceedsBurst(t *testing.T) {
	tr := NewThrottle(SourceLimit{Burst: 2, Every: time.Millisecond})
	tr.mu.Lock()
	tr.refill(time.Now().Add(time.Minute))
	tokens := tr.tokens
	tr.mu.Unlock()
	if tokens != 2 {
		t.Fatalf("tokens = %d, want burst cap 2", tokens)
	}
}
