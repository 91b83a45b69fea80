package fetcher

import (
	"context"
	"testing"
	"time"
)

func TestThrottleSpacesCalls(t *testing.T) {
	interval := 30 * time.Millisecond
	th := newThrottle(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := th.wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First call is immediate, the next two must each wait one interval.
	if elapsed < 2*interval {
		t.Fatalf("three calls finished in %v, want at least %v", elapsed, 2*interval)
	}
}

func TestThrottleCancelled(t *testing.T) {
	th := newThrottle(time.Minute)
	if err := th.wait(context.Background()); err != nil {
		t.Fatalf("first wait should not block: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := th.wait(ctx); err == nil {
		t.Fatal("cancelled context must abort the wait")
	}
}

func TestThrottleDisabled(t *testing.T) {
	th := newThrottle(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := th.wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > time.Second {
		t.Fatal("zero interval must not throttle")
	}
}
