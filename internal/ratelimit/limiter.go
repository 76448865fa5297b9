// Package ratelimit provides keyed token buckets for the web layer.
// Each endpoint class owns a Limiter configured with its own budget;
// buckets are keyed by client IP so one chatty caller cannot starve
// the rest.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
)

// Limiter is a keyed token bucket. A key's bucket starts full and
// refills wholesale once its interval has elapsed.
type Limiter struct {
	limit    int
	interval time.Duration
	clk      clock.Clock

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   int
	lastFill time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock substitutes the time source, for tests.
func WithClock(clk clock.Clock) Option {
	return func(l *Limiter) { l.clk = clk }
}

// New returns a Limiter allowing limit requests per key per interval.
func New(limit int, interval time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		limit:    limit,
		interval: interval,
		clk:      &clock.RealClock{},
		buckets:  make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether one more request for key fits the budget.
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN reports whether n more requests for key fit the budget,
// taking all n tokens if so.
func (l *Limiter) AllowN(key string, n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.limit, lastFill: now}
		l.buckets[key] = b
	}
	if now.Sub(b.lastFill) >= l.interval {
		b.tokens = l.limit
		b.lastFill = now
	}
	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// Reset forgets a key's bucket so its next request starts a full one.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Prune drops buckets idle longer than maxAge.
func (l *Limiter) Prune(maxAge time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	for key, b := range l.buckets {
		if now.Sub(b.lastFill) > maxAge {
			delete(l.buckets, key)
		}
	}
}

// StartPruning prunes idle buckets every interval until ctx is done.
func (l *Limiter) StartPruning(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Prune(maxAge)
			}
		}
	}()
}
