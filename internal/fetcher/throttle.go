package fetcher

import (
	"context"
	"sync"
	"time"
)

// throttle spaces outbound API calls by a minimum interval. Each caller
// reserves the next slot under the lock and then sleeps without holding it,
// so concurrent fetch workers share one polite pace.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{interval: interval}
}

func (t *throttle) wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return nil
	}

	t.mu.Lock()
	now := time.Now()
	at := t.next
	if at.Before(now) {
		at = now
	}
	t.next = at.Add(t.interval)
	t.mu.Unlock()

	delay := time.Until(at)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
