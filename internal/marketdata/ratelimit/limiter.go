// Package ratelimit implements a per-provider token bucket built on
// golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerMinute and DefaultBurst are defaults.
	DefaultRequestsPerMinute = 60
	DefaultBurst             = 10
)

// Limits holds a provider's configured capacity and refill rate.
type Limits struct {
	RequestsPerMinute int
	Burst             int
}

func (l Limits) orDefault() Limits {
	out := l
	if out.RequestsPerMinute <= 0 {
		out.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if out.Burst <= 0 {
		out.Burst = DefaultBurst
	}
	return out
}

func (l Limits) perSecond() rate.Limit {
	return rate.Limit(float64(l.RequestsPerMinute) / 60.0)
}

// Registry owns one token bucket per provider id. Buckets are isolated:
// exhausting provider A's bucket never blocks provider B.
//
// The guarding mutex is poison-tolerant: a panic inside a held critical
// section is recovered so a single bad tick of accounting never wedges
// every other provider's limiter.
type Registry struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	defaults Limits
	overrides map[string]Limits
}

// NewRegistry returns a Registry using defaultLimits unless a provider has
// an override entry.
func NewRegistry(defaultLimits Limits, overrides map[string]Limits) *Registry {
	if overrides == nil {
		overrides = make(map[string]Limits)
	}
	return &Registry{
		buckets:   make(map[string]*rate.Limiter),
		defaults:  defaultLimits.orDefault(),
		overrides: overrides,
	}
}

// bucketFor returns (creating if needed) the limiter for providerID. Any
// panic while mutating the map is recovered and a fresh limiter is
// returned for this call: recover and continue rather than panic.
func (r *Registry) bucketFor(providerID string) (b *rate.Limiter) {
	defer func() {
		if rec := recover(); rec != nil {
			limits := r.limitsFor(providerID)
			b = rate.NewLimiter(limits.perSecond(), limits.Burst)
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.buckets[providerID]; ok {
		return existing
	}
	limits := r.limitsFor(providerID)
	limiter := rate.NewLimiter(limits.perSecond(), limits.Burst)
	r.buckets[providerID] = limiter
	return limiter
}

func (r *Registry) limitsFor(providerID string) Limits {
	if l, ok := r.overrides[providerID]; ok {
		return l.orDefault()
	}
	return r.defaults
}

// Acquire blocks, refilling tokens based on elapsed wall time, until one
// token is available or ctx is cancelled.
func (r *Registry) Acquire(ctx context.Context, providerID string) error {
	return r.bucketFor(providerID).Wait(ctx)
}

// TryAcquire is the non-blocking form: it consumes a token if one is
// immediately available and reports whether it did.
func (r *Registry) TryAcquire(providerID string) bool {
	return r.bucketFor(providerID).Allow()
}

// Reserve mirrors acquire's sleep-then-retry description literally: it
// computes how long the caller would need to wait for a token without
// blocking, for callers that want to schedule the retry themselves.
func (r *Registry) Reserve(providerID string) time.Duration {
	reservation := r.bucketFor(providerID).Reserve()
	if !reservation.OK() {
		return 0
	}
	delay := reservation.Delay()
	reservation.Cancel()
	return delay
}
