package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Backoff defaults for the hub session.
const (
	InitialBackoff    = 1 * time.Second
	MaxBackoff        = 900 * time.Second
	BackoffMultiplier = 2.0
)

// BackoffConfig describes a backoff schedule. Zero fields take the package
// defaults.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	// Jitter is the maximum extra delay as a fraction of the base delay.
	// Jittered delays are still capped at Max.
	Jitter float64
}

// normalize fills in defaults and clamps Max to at least Initial.
func (c BackoffConfig) normalize() BackoffConfig {
	if c.Initial <= 0 {
		c.Initial = InitialBackoff
	}
	if c.Max <= 0 {
		c.Max = MaxBackoff
	}
	c.Max = max(c.Max, c.Initial)
	if c.Multiplier <= 1 {
		c.Multiplier = BackoffMultiplier
	}
	c.Jitter = max(c.Jitter, 0)
	return c
}

// grow returns the base delay that follows d.
func (c BackoffConfig) grow(d time.Duration) time.Duration {
	next := time.Duration(float64(d) * c.Multiplier)
	if next <= 0 || next > c.Max {
		return c.Max
	}
	return next
}

// Backoff tracks consecutive connect failures and the delay before the
// next attempt. It is safe for concurrent use.
type Backoff struct {
	cfg BackoffConfig

	mu       sync.Mutex
	current  time.Duration
	attempts int
}

// NewBackoff creates a Backoff with the default schedule.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{})
}

// NewBackoffWithConfig creates a Backoff with a custom schedule.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	cfg = cfg.normalize()
	return &Backoff{cfg: cfg, current: cfg.Initial}
}

// Next records a failure. It returns the delay to wait before the next
// attempt and advances the base delay for the failure after that.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.jittered(b.current)
	b.current = b.cfg.grow(b.current)
	b.attempts++
	return delay
}

// Reset returns to the initial delay after a successful connect. It
// reports whether anything changed.
func (b *Backoff) Reset() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	changed := b.current != b.cfg.Initial || b.attempts != 0
	b.current = b.cfg.Initial
	b.attempts = 0
	return changed
}

// Attempts returns the number of failures since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current returns the base delay for the next failure, without jitter.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Bounds returns the minimum and maximum base delays.
func (b *Backoff) Bounds() (lo, hi time.Duration) {
	return b.cfg.Initial, b.cfg.Max
}

// jittered adds random jitter to d without exceeding the configured maximum.
func (b *Backoff) jittered(d time.Duration) time.Duration {
	if b.cfg.Jitter == 0 {
		return d
	}
	return min(d+time.Duration(float64(d)*b.cfg.Jitter*rand.Float64()), b.cfg.Max)
}
