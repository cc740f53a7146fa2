package middleware

import (
	"sync"
	"time"
)

// UserLimiter enforces a per-user sliding one-minute window. Over-limit users
// get a fixed reply at the handler level instead of an HTTP error, so this is
// a plain Allow check rather than an HTTP middleware.
type UserLimiter struct {
	mu     sync.Mutex
	window map[string][]time.Time
	limit  int
	now    func() time.Time
	done   chan struct{}
}

// NewUserLimiter creates a limiter allowing limit messages per user per
// minute. limit <= 0 disables limiting.
func NewUserLimiter(limit int) *UserLimiter {
	l := &UserLimiter{
		window: map[string][]time.Time{},
		limit:  limit,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow records one request for the key and reports whether it fits the
// window. The key is the platform-scoped user id.
func (l *UserLimiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-time.Minute)

	kept := l.window[key][:0]
	for _, ts := range l.window[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.limit {
		l.window[key] = kept
		return false
	}
	l.window[key] = append(kept, now)
	return true
}

// Close stops the background eviction goroutine.
func (l *UserLimiter) Close() {
	close(l.done)
}

func (l *UserLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}
		l.mu.Lock()
		cutoff := l.now().Add(-time.Minute)
		for key, stamps := range l.window {
			if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
				delete(l.window, key)
			}
		}
		l.mu.Unlock()
	}
}
