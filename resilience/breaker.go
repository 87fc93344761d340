package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Breaker.Execute while calls are refused.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	// BreakerClosed lets every call through.
	BreakerClosed BreakerState = iota
	// BreakerOpen refuses calls until OpenTimeout has passed.
	BreakerOpen
	// BreakerHalfOpen lets HalfOpenMaxCalls trial calls through.
	BreakerHalfOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs.
	Name string `yaml:"name" mapstructure:"name"`
	// MaxFailures is the number of consecutive failures that opens the
	// circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// OpenTimeout is how long the circuit stays open before trial calls.
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
	// HalfOpenMaxCalls is the number of trial calls, all of which must
	// succeed to close the circuit again.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`

	// IsFailure decides which errors count against the circuit. Defaults
	// to every error except context cancellation.
	IsFailure func(error) bool `yaml:"-" mapstructure:"-"`
	// OnStateChange is called after each transition, outside the lock.
	OnStateChange func(name string, from, to BreakerState) `yaml:"-" mapstructure:"-"`
}

// DefaultBreakerConfig returns the default configuration.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Breaker fails calls fast after repeated failures of a dependency and
// probes it again after a cool-down.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu            sync.Mutex
	state         BreakerState
	failures      int
	openedAt      time.Time
	halfOpenCalls int
	halfOpenOK    int
}

// NewBreaker creates a closed breaker. Non-positive fields take the
// defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	d := DefaultBreakerConfig(cfg.Name)
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = d.MaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = d.OpenTimeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = d.HalfOpenMaxCalls
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	b.record(err)
	return err
}

// State returns the current state. An open circuit whose timeout has
// passed reports half-open.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	state, change := b.advance()
	b.mu.Unlock()
	b.notify(change)
	return state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	change := b.transition(BreakerClosed)
	b.mu.Unlock()
	b.notify(change)
}

type stateChange struct {
	from, to BreakerState
	changed  bool
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	state, change := b.advance()
	allowed := true
	switch state {
	case BreakerOpen:
		allowed = false
	case BreakerHalfOpen:
		if b.halfOpenCalls >= b.cfg.HalfOpenMaxCalls {
			allowed = false
		} else {
			b.halfOpenCalls++
		}
	}
	b.mu.Unlock()
	b.notify(change)
	return allowed
}

func (b *Breaker) record(err error) {
	failed := err != nil && b.cfg.IsFailure(err)

	b.mu.Lock()
	var change stateChange
	switch b.state {
	case BreakerClosed:
		if !failed {
			b.failures = 0
			break
		}
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			change = b.transition(BreakerOpen)
		}
	case BreakerHalfOpen:
		if failed {
			b.failures++
			change = b.transition(BreakerOpen)
			break
		}
		b.halfOpenOK++
		if b.halfOpenOK >= b.cfg.HalfOpenMaxCalls {
			change = b.transition(BreakerClosed)
		}
	}
	b.mu.Unlock()
	b.notify(change)
}

// advance moves an expired open circuit to half-open. Callers hold mu.
func (b *Breaker) advance() (BreakerState, stateChange) {
	var change stateChange
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		change = b.transition(BreakerHalfOpen)
	}
	return b.state, change
}

// transition sets the state and resets its counters. Callers hold mu.
func (b *Breaker) transition(to BreakerState) stateChange {
	from := b.state
	b.state = to
	b.halfOpenCalls = 0
	b.halfOpenOK = 0
	switch to {
	case BreakerClosed:
		b.failures = 0
	case BreakerOpen:
		b.openedAt = b.now()
	}
	return stateChange{from: from, to: to, changed: from != to}
}

func (b *Breaker) notify(c stateChange) {
	if c.changed && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, c.from, c.to)
	}
}
