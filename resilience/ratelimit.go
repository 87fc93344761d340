package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	// Name identifies the limiter in logs.
	Name string `yaml:"name" mapstructure:"name"`
	// Rate is the sustained number of calls per second.
	Rate float64 `yaml:"rate" mapstructure:"rate"`
	// Burst is the bucket size. Defaults to Rate rounded up, at least 1.
	Burst int `yaml:"burst" mapstructure:"burst"`

	// OnLimit is called with the wait whenever a call has to wait.
	OnLimit func(name string, wait time.Duration) `yaml:"-" mapstructure:"-"`
}

// RateLimiter is a token bucket. Allow never blocks; Wait reserves a token
// and sleeps until it is due.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate+0.999))
	}
	l := &RateLimiter{cfg: cfg, now: time.Now, tokens: float64(cfg.Burst)}
	l.lastRefill = l.now()
	return l
}

// Allow takes a token if one is available.
func (l *RateLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Wait takes a token, sleeping until it is due. When ctx ends first the
// reservation is returned and ctx.Err() is reported.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	l.refill()
	l.tokens--
	var wait time.Duration
	if l.tokens < 0 {
		wait = time.Duration(-l.tokens / l.cfg.Rate * float64(time.Second))
	}
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	if l.cfg.OnLimit != nil {
		l.cfg.OnLimit(l.cfg.Name, wait)
	}
	if err := Sleep(ctx, wait); err != nil {
		l.mu.Lock()
		l.tokens++
		l.mu.Unlock()
		return err
	}
	return nil
}

// Tokens returns the tokens currently available. It is negative while
// waiters hold reservations.
func (l *RateLimiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}

func (l *RateLimiter) refill() {
	now := l.now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.cfg.Rate
	l.lastRefill = now
	if burst := float64(l.cfg.Burst); l.tokens > burst {
		l.tokens = burst
	}
}
