// Package limiter conflates bursts of requests into at most one fetch per
// time window, always using the most recent value.
package limiter

import (
	"context"
	"sync"
	"time"
)

// RequestLimiter holds at most one unfetched value and at most one waiter.
type RequestLimiter[T any] struct {
	timeout time.Duration
	now     func() time.Time

	mu          sync.Mutex
	value       T
	hasValue    bool
	lockedUntil time.Time
	pending     bool
}

func New[T any](timeout time.Duration) *RequestLimiter[T] {
	return &RequestLimiter[T]{
		timeout: timeout,
		now:     time.Now,
	}
}

// Request stores value and reports whether the caller should fetch, and with
// which value. The returned value may be newer than the one passed in.
//
// The first call in an idle window returns immediately. A call arriving while
// the window is locked waits for it to expire, unless another caller is
// already waiting, in which case it returns false at once and its value is
// handed to that waiter.
func (l *RequestLimiter[T]) Request(ctx context.Context, value T) (T, bool) {
	l.mu.Lock()
	hadValue := l.hasValue
	l.value, l.hasValue = value, true

	now := l.now()
	if !hadValue && !now.Before(l.lockedUntil) {
		l.lockedUntil = now.Add(l.timeout)
		v := l.take()
		l.mu.Unlock()
		return v, true
	}

	if l.pending {
		l.mu.Unlock()
		var zero T
		return zero, false
	}

	l.pending = true
	wait := l.lockedUntil.Sub(now)
	l.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			l.mu.Lock()
			l.pending = false
			l.mu.Unlock()
			var zero T
			return zero, false
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lockedUntil = l.now().Add(l.timeout)
	l.pending = false
	return l.take(), true
}

// take empties the slot. Callers hold mu.
func (l *RequestLimiter[T]) take() T {
	v := l.value
	var zero T
	l.value, l.hasValue = zero, false
	return v
}

func (l *RequestLimiter[T]) isPending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}
