package resilience

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces the process-wide ceiling on upstream requests: at most
// maxConcurrent in flight and at most maxPerInterval starts per interval.
// One instance is shared by every caller of the upstream client.
type Limiter struct {
	slots chan struct{}

	mu             sync.Mutex
	interval       time.Duration
	maxPerInterval int
	windowStart    time.Time
	windowCount    int
	now            func() time.Time
}

func NewLimiter(maxConcurrent, maxPerInterval int, interval time.Duration) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if maxPerInterval < 1 {
		maxPerInterval = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	return &Limiter{
		slots:          make(chan struct{}, maxConcurrent),
		interval:       interval,
		maxPerInterval: maxPerInterval,
		now:            time.Now,
	}
}

// Acquire blocks until both a concurrency slot and an interval token are
// available, or the context is cancelled. Every successful Acquire must be
// paired with Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	for {
		l.mu.Lock()
		now := l.now()
		if now.Sub(l.windowStart) >= l.interval {
			l.windowStart = now
			l.windowCount = 0
		}
		if l.windowCount < l.maxPerInterval {
			l.windowCount++
			l.mu.Unlock()
			return nil
		}
		wait := l.interval - now.Sub(l.windowStart)
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			<-l.slots
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
	}
}
