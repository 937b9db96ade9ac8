// Package rate implements the in-memory token bucket that throttles login
// attempts per identity. It is process-local state: restarting the process
// forgets all buckets, which is the accepted trade-off for a zero-dependency
// hot path.
package rate

import (
	"strings"
	"sync"
	"time"
)

// Config controls one limiter. RefillTokens tokens are added per
// RefillInterval, pro-rated continuously rather than in steps.
type Config struct {
	Enabled        bool
	Capacity       float64
	RefillTokens   float64
	RefillInterval time.Duration
}

type bucket struct {
	mu      sync.Mutex
	tokens  float64
	last    time.Time
	evicted bool
}

// Limiter is a per-key token bucket map. All methods are safe for
// concurrent use; per-key operations serialize on the key's own mutex so
// two attempts for the same identity can never both spend the last token.
type Limiter struct {
	mu  sync.RWMutex
	cfg Config

	buckets sync.Map // key string -> *bucket
	now     func() time.Time
}

// NewLimiter creates a Limiter. A nil clock uses time.Now.
func NewLimiter(cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{cfg: cfg, now: now}
}

// Reconfigure swaps the config. Existing buckets keep their current token
// count; the new capacity applies as a cap on the next refill.
func (l *Limiter) Reconfigure(cfg Config) {
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
}

func (l *Limiter) config() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// TryConsume spends one token for the key and reports whether the attempt
// may proceed. It fails open: a blank key or a disabled limiter always
// allows. Keys are case-insensitive and whitespace-trimmed.
func (l *Limiter) TryConsume(key string) bool {
	cfg := l.config()
	key = normalize(key)
	if key == "" || !cfg.Enabled {
		return true
	}

	for {
		v, _ := l.buckets.LoadOrStore(key, &bucket{tokens: cfg.Capacity, last: l.now()})
		b := v.(*bucket)

		b.mu.Lock()
		if b.evicted {
			// Lost the race against Sweep: the map entry is a tombstone.
			b.mu.Unlock()
			l.buckets.Delete(key)
			continue
		}
		allowed := b.consume(cfg, l.now())
		b.mu.Unlock()
		return allowed
	}
}

// consume refills pro-rata since the last touch, then spends one token if a
// whole one is available. Caller holds b.mu.
func (b *bucket) consume(cfg Config, now time.Time) bool {
	if cfg.RefillInterval > 0 && now.After(b.last) {
		elapsed := now.Sub(b.last)
		b.tokens += cfg.RefillTokens * (float64(elapsed) / float64(cfg.RefillInterval))
		if b.tokens > cfg.Capacity {
			b.tokens = cfg.Capacity
		}
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Sweep evicts buckets that have refilled back to (effectively) full, so an
// identity that stopped failing stops occupying memory. Returns the number
// of evicted buckets.
func (l *Limiter) Sweep() int {
	cfg := l.config()
	now := l.now()
	evicted := 0

	l.buckets.Range(func(k, v any) bool {
		b := v.(*bucket)
		b.mu.Lock()
		full := b.projectedTokens(cfg, now) >= cfg.Capacity-1e-9
		if full {
			b.evicted = true
			l.buckets.Delete(k)
			evicted++
		}
		b.mu.Unlock()
		return true
	})
	return evicted
}

// projectedTokens computes the balance now without mutating the bucket.
// Caller holds b.mu.
func (b *bucket) projectedTokens(cfg Config, now time.Time) float64 {
	tokens := b.tokens
	if cfg.RefillInterval > 0 && now.After(b.last) {
		elapsed := now.Sub(b.last)
		tokens += cfg.RefillTokens * (float64(elapsed) / float64(cfg.RefillInterval))
	}
	if tokens > cfg.Capacity {
		tokens = cfg.Capacity
	}
	return tokens
}

// Len reports the current number of tracked buckets.
func (l *Limiter) Len() int {
	n := 0
	l.buckets.Range(func(any, any) bool { n++; return true })
	return n
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
