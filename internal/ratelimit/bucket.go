// Package ratelimit implements the token bucket gating every outbound
// request. Tokens refill lazily on acquisition; there is no background
// timer. The bucket can reconcile its local accounting downward against a
// server-reported remaining budget, which keeps it honest when other
// clients share the same quota.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Bucket is a token bucket with a burst cap that is independent of the
// long-window capacity. Invariant: 0 <= available <= min(burst, capacity).
type Bucket struct {
	mu        sync.Mutex
	capacity  float64
	burst     float64
	rate      float64 // tokens per second
	available float64
	last      time.Time
	now       func() time.Time
}

// Option configures a Bucket.
type Option func(*Bucket)

// WithBurst caps the number of instantaneously available tokens
// independently of the window capacity.
func WithBurst(n float64) Option {
	return func(b *Bucket) { b.burst = n }
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Bucket) { b.now = now }
}

// NewBucket returns a bucket allowing tokens grants per window. The
// bucket starts full up to its burst cap.
func NewBucket(tokens float64, window time.Duration, opts ...Option) *Bucket {
	b := &Bucket{
		capacity: tokens,
		burst:    tokens,
		rate:     tokens / window.Seconds(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.available = math.Min(b.burst, b.capacity)
	b.last = b.now()
	return b
}

// refillLocked adds tokens according to the time elapsed since the last
// refill. Callers must hold b.mu.
func (b *Bucket) refillLocked() {
	now := b.now()
	cap := math.Min(b.burst, b.capacity)
	if b.available < cap {
		elapsed := now.Sub(b.last).Seconds()
		b.available = math.Min(b.available+elapsed*b.rate, cap)
	}
	b.last = now
}

// Acquire blocks until at least one token is available, then takes it.
// It only fails when the context is cancelled; quota exhaustion is
// expressed as delay, never as an error.
func (b *Bucket) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refillLocked()
		if b.available >= 1 {
			b.available--
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.available) / b.rate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Reconcile lowers the locally tracked budget to the server-reported
// remaining quota when the server's view is smaller. The effective
// budget is always the minimum of the two independently tracked values;
// a generous server report never raises the local count.
func (b *Bucket) Reconcile(serverRemaining float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	if serverRemaining < b.available {
		b.available = math.Max(0, serverRemaining)
	}
}

// Tokens reports the currently available tokens after a refill pass.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.available
}

// Group acquires from several buckets in order, composing compound
// limits such as "N per hour and M per minute".
type Group []*Bucket

// Acquire takes one token from every bucket in the group, blocking on
// each in turn.
func (g Group) Acquire(ctx context.Context) error {
	for _, b := range g {
		if err := b.Acquire(ctx); err != nil {
			return err
		}
	}
	return nil
}
