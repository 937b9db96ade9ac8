// Package limiters implements the failed-login lockout tracker. It counts
// consecutive failures per identity and locks the identity once the
// configured threshold is reached. State is process-local and in-memory.
package limiters

import (
	"strings"
	"sync"
	"time"
)

// Config controls the lockout tracker.
type Config struct {
	Enabled bool
	// MaxAttempts is the failure count that triggers a lockout.
	MaxAttempts int
	// LockoutDuration is how long a locked identity stays locked.
	LockoutDuration time.Duration
	// CounterReset clears a stale failure count after this much inactivity,
	// so failures spread over days never accumulate into a lockout.
	CounterReset time.Duration
}

type record struct {
	mu          sync.Mutex
	failures    int
	lockedUntil time.Time
	lastFailure time.Time
	evicted     bool
}

// Lockout tracks failed attempts per key. Per-key operations serialize on
// the record's own mutex, so concurrent failures for the same identity
// produce an exact count.
type Lockout struct {
	mu  sync.RWMutex
	cfg Config

	records sync.Map // key string -> *record
	now     func() time.Time
}

// NewLockout creates a Lockout. A nil clock uses time.Now.
func NewLockout(cfg Config, now func() time.Time) *Lockout {
	if now == nil {
		now = time.Now
	}
	return &Lockout{cfg: cfg, now: now}
}

// Reconfigure swaps the config. Existing lockouts and counters survive; the
// new thresholds apply from the next event.
func (l *Lockout) Reconfigure(cfg Config) {
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
}

func (l *Lockout) config() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// RecordFailure counts one failed attempt and reports whether the identity
// is now locked. An expired lockout is cleared lazily first, so the failure
// that arrives after a lockout lapses starts a fresh count of one.
func (l *Lockout) RecordFailure(key string) bool {
	cfg := l.config()
	key = normalize(key)
	if key == "" || !cfg.Enabled {
		return false
	}

	for {
		v, _ := l.records.LoadOrStore(key, &record{})
		r := v.(*record)

		r.mu.Lock()
		if r.evicted {
			r.mu.Unlock()
			l.records.Delete(key)
			continue
		}

		now := l.now()
		r.expireLocked(cfg, now)

		r.failures++
		r.lastFailure = now
		if r.failures >= cfg.MaxAttempts {
			r.lockedUntil = now.Add(cfg.LockoutDuration)
		}
		locked := now.Before(r.lockedUntil)
		r.mu.Unlock()
		return locked
	}
}

// IsLockedOut reports whether the identity is currently locked. Expired
// lockouts are cleared lazily on the way.
func (l *Lockout) IsLockedOut(key string) bool {
	cfg := l.config()
	key = normalize(key)
	if key == "" || !cfg.Enabled {
		return false
	}

	v, ok := l.records.Load(key)
	if !ok {
		return false
	}
	r := v.(*record)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return false
	}
	now := l.now()
	r.expireLocked(cfg, now)
	return now.Before(r.lockedUntil)
}

// RecordSuccess clears the identity's failure state entirely.
func (l *Lockout) RecordSuccess(key string) {
	key = normalize(key)
	if key == "" {
		return
	}
	if v, ok := l.records.Load(key); ok {
		r := v.(*record)
		r.mu.Lock()
		r.evicted = true
		r.mu.Unlock()
		l.records.Delete(key)
	}
}

// Unlock is the administrative override: it releases a lockout immediately
// and zeroes the counter.
func (l *Lockout) Unlock(key string) {
	l.RecordSuccess(key)
}

// FailedAttempts reports the identity's current consecutive-failure count.
func (l *Lockout) FailedAttempts(key string) int {
	cfg := l.config()
	key = normalize(key)

	v, ok := l.records.Load(key)
	if !ok {
		return 0
	}
	r := v.(*record)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return 0
	}
	r.expireLocked(cfg, l.now())
	return r.failures
}

// Sweep releases expired lockouts, resets counters idle beyond
// CounterReset, and evicts records with nothing left to remember. Returns
// the number of evicted records.
func (l *Lockout) Sweep() int {
	cfg := l.config()
	now := l.now()
	evicted := 0

	l.records.Range(func(k, v any) bool {
		r := v.(*record)
		r.mu.Lock()
		r.expireLocked(cfg, now)
		if r.failures == 0 && !now.Before(r.lockedUntil) {
			r.evicted = true
			l.records.Delete(k)
			evicted++
		}
		r.mu.Unlock()
		return true
	})
	return evicted
}

// Len reports the current number of tracked identities.
func (l *Lockout) Len() int {
	n := 0
	l.records.Range(func(any, any) bool { n++; return true })
	return n
}

// expireLocked clears a lapsed lockout or a stale counter. Caller holds
// r.mu.
func (r *record) expireLocked(cfg Config, now time.Time) {
	if !r.lockedUntil.IsZero() && !now.Before(r.lockedUntil) {
		r.lockedUntil = time.Time{}
		r.failures = 0
		return
	}
	if cfg.CounterReset > 0 && r.failures > 0 && r.lockedUntil.IsZero() &&
		now.Sub(r.lastFailure) >= cfg.CounterReset {
		r.failures = 0
	}
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
