// Package ratelimit provides a per-client-key request limiter for the
// submission endpoints.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter allows a burst of requests per client key, refilling one slot
// per window. Idle entries are pruned so the map does not grow with every
// client ever seen.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	lastSeen func() time.Time
}

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// New creates a limiter that admits burst requests per key, refilling one
// permit every window.
func New(window time.Duration, burst int) *KeyedLimiter {
	limit := rate.Inf
	if window > 0 {
		limit = rate.Every(window)
	}
	return &KeyedLimiter{
		limiters: make(map[string]*entry),
		limit:    limit,
		burst:    burst,
		ttl:      10 * time.Minute,
		lastSeen: time.Now,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (k *KeyedLimiter) Allow(key string) bool {
	now := k.lastSeen()

	k.mu.Lock()
	e, ok := k.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = e
	}
	e.seen = now

	for id, other := range k.limiters {
		if id != key && now.Sub(other.seen) > k.ttl {
			delete(k.limiters, id)
		}
	}
	k.mu.Unlock()

	return e.limiter.Allow()
}
