package ratelimit

import (
	"sync"
	"time"
)

// maxBuckets caps how many distinct keys are tracked so an address scan
// cannot grow the map without bound.
const maxBuckets = 10000

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Limiter is a per-key token bucket used to throttle API callers.
type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		if len(l.m) >= maxBuckets {
			l.evictStale(now)
		}
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// evictStale drops buckets idle long enough to be full again. Caller holds
// the lock.
func (l *Limiter) evictStale(now time.Time) {
	for key, b := range l.m {
		idle := now.Sub(b.last).Seconds()
		if b.tokens+idle*b.refillRate >= b.capacity {
			delete(l.m, key)
		}
	}
}
