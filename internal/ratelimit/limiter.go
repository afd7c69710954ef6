// Package ratelimit provides the per-client sliding window guarding the
// order intake endpoint.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow allows at most limit requests per key within the trailing
// window. State is in-process: each service replica enforces its own
// window, which matches how the storefront has always behaved.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a request for key if it is within the limit. When the limit
// is exhausted it returns false and how long the caller must wait for the
// oldest request in the window to expire.
func (l *SlidingWindow) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.hits[key] = kept
		return false, l.window - now.Sub(kept[0])
	}

	l.hits[key] = append(kept, now)
	return true, 0
}

// Prune drops keys whose whole window has expired. Callers run it
// periodically; Allow already trims the window of active keys.
func (l *SlidingWindow) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, hits := range l.hits {
		alive := false
		for _, t := range hits {
			if t.After(cutoff) {
				alive = true
				break
			}
		}
		if !alive {
			delete(l.hits, key)
		}
	}
}
