package breaker

import (
	"sync"
	"time"
)

// State is the current position of one circuit.
type State int

const (
	// StateClosed allows normal task flow.
	StateClosed State = iota
	// StateOpen blocks all task flow until the cooldown elapses.
	StateOpen
	// StateHalfOpen admits a single trial task to probe recovery.
	StateHalfOpen
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Default breaker tunables.
const (
	DefaultFailureThreshold = 5
	DefaultFailureWindow    = 5 * time.Minute
	DefaultCooldown         = 30 * time.Second

	// maxCooldownFactor caps the exponential backoff at threshold*2^6.
	maxCooldownFactor = 64
)

// Breaker is a circuit breaker for a single agent. Failures are counted over
// a rolling window; crossing the threshold opens the circuit. After the
// cooldown a single trial execution is admitted: success closes the circuit,
// failure re-opens it with a doubled cooldown.
type Breaker struct {
	mu sync.Mutex

	threshold int
	window    time.Duration
	cooldown  time.Duration

	state       State
	failures    []time.Time
	openedAt    time.Time
	trialActive bool
	openCount   int // consecutive opens, drives backoff

	now func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithThreshold sets the number of windowed failures that opens the circuit.
func WithThreshold(n int) Option {
	return func(b *Breaker) { b.threshold = n }
}

// WithWindow sets the rolling window over which failures are counted.
func WithWindow(d time.Duration) Option {
	return func(b *Breaker) { b.window = d }
}

// WithCooldown sets the base open-state cooldown.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) { b.cooldown = d }
}

// WithClock overrides the time source. Tests use this to avoid sleeping.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// New creates a closed Breaker.
func New(opts ...Option) *Breaker {
	b := &Breaker{
		threshold: DefaultFailureThreshold,
		window:    DefaultFailureWindow,
		cooldown:  DefaultCooldown,
		state:     StateClosed,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether the agent may receive a task right now. An open
// circuit whose cooldown has elapsed moves to half-open and admits exactly
// one trial; further calls are rejected until the trial resolves.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.currentCooldown() {
			return false
		}
		b.state = StateHalfOpen
		b.trialActive = true
		return true
	case StateHalfOpen:
		if b.trialActive {
			return false
		}
		b.trialActive = true
		return true
	default:
		return false
	}
}

// RecordSuccess records a successful execution. A half-open trial success
// closes the circuit and clears the failure history. A success reported on
// an open circuit whose cooldown has elapsed closes it too: the agent can
// re-enter the pool without an explicit trial reservation.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.closeLocked()
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.currentCooldown() {
			b.closeLocked()
		}
	case StateClosed:
		b.pruneLocked()
	}
}

// RecordFailure records a failed execution. In the closed state it opens the
// circuit once the windowed failure count reaches the threshold; a failed
// half-open trial re-opens immediately with a doubled cooldown.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	switch b.state {
	case StateClosed:
		b.failures = append(b.failures, now)
		b.pruneLocked()
		if len(b.failures) >= b.threshold {
			b.openLocked(now)
		}
	case StateHalfOpen:
		b.trialActive = false
		b.openLocked(now)
	case StateOpen:
		// Late report from an execution that started before the trip.
		b.openedAt = now
	}
}

// State returns the current state, applying any pending cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.currentCooldown() {
		return StateHalfOpen
	}
	return b.state
}

// closeLocked resets the circuit to closed. Callers must hold b.mu.
func (b *Breaker) closeLocked() {
	b.state = StateClosed
	b.failures = nil
	b.trialActive = false
	b.openCount = 0
}

// openLocked trips the circuit. Callers must hold b.mu.
func (b *Breaker) openLocked(now time.Time) {
	b.state = StateOpen
	b.openedAt = now
	b.openCount++
	b.failures = nil
}

// currentCooldown returns the cooldown with exponential backoff applied.
// Callers must hold b.mu.
func (b *Breaker) currentCooldown() time.Duration {
	factor := 1
	for i := 1; i < b.openCount && factor < maxCooldownFactor; i++ {
		factor *= 2
	}
	return b.cooldown * time.Duration(factor)
}

// pruneLocked drops failures that fell out of the rolling window. Callers
// must hold b.mu.
func (b *Breaker) pruneLocked() {
	cutoff := b.now().Add(-b.window)
	kept := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.failures = kept
}
