package scaling

import (
	"fmt"
	"sync"
	"time"
)

// Default policy values.
const (
	defaultMinAgents   = 1
	defaultMaxAgents   = 8
	defaultHighWater   = 10
	defaultLowWater    = 2
	defaultSampleCount = 3
	defaultStep        = 1
	defaultCooldown    = 30 * time.Second
)

// Option configures a Policy.
type Option func(*Policy)

// WithMinAgents sets the minimum pool size to maintain.
func WithMinAgents(n int) Option {
	return func(p *Policy) { p.minAgents = n }
}

// WithMaxAgents sets the maximum pool size allowed.
func WithMaxAgents(n int) Option {
	return func(p *Policy) { p.maxAgents = n }
}

// WithHighWater sets the queue depth above which sustained load scales up.
func WithHighWater(n int) Option {
	return func(p *Policy) { p.highWater = n }
}

// WithLowWater sets the queue depth below which sustained idleness scales
// down.
func WithLowWater(n int) Option {
	return func(p *Policy) { p.lowWater = n }
}

// WithSampleCount sets how many consecutive samples beyond a water mark are
// required before the policy acts. This is the anti-flapping guard: a single
// transient spike never changes the pool.
func WithSampleCount(n int) Option {
	return func(p *Policy) { p.sampleCount = n }
}

// WithStep sets how many agents one decision adds or removes.
func WithStep(n int) Option {
	return func(p *Policy) { p.step = n }
}

// WithCooldown sets the minimum time between scaling decisions.
func WithCooldown(d time.Duration) Option {
	return func(p *Policy) { p.cooldown = d }
}

// Policy turns load samples into scaling decisions using a hysteresis band:
// the pool grows only after sampleCount consecutive samples above the
// high-water mark, and shrinks only after sampleCount consecutive samples
// below the low-water mark, always staying within [minAgents, maxAgents].
// It is safe for concurrent use.
type Policy struct {
	mu          sync.Mutex
	minAgents   int
	maxAgents   int
	highWater   int
	lowWater    int
	sampleCount int
	step        int
	cooldown    time.Duration

	aboveStreak  int
	belowStreak  int
	lastDecision time.Time
}

// NewPolicy creates a Policy with the given options.
// Unset options use defaults.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		minAgents:   defaultMinAgents,
		maxAgents:   defaultMaxAgents,
		highWater:   defaultHighWater,
		lowWater:    defaultLowWater,
		sampleCount: defaultSampleCount,
		step:        defaultStep,
		cooldown:    defaultCooldown,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate records one load sample and returns the resulting decision.
// Samples inside the hysteresis band reset both streaks.
func (p *Policy) Evaluate(s Sample) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case s.QueueDepth > p.highWater:
		p.aboveStreak++
		p.belowStreak = 0
	case s.QueueDepth < p.lowWater:
		p.belowStreak++
		p.aboveStreak = 0
	default:
		p.aboveStreak = 0
		p.belowStreak = 0
	}

	now := time.Now()
	if !p.lastDecision.IsZero() && now.Sub(p.lastDecision) < p.cooldown {
		return Decision{Action: ActionNone, Reason: "cooldown period active"}
	}

	if p.aboveStreak >= p.sampleCount && s.TotalAgents < p.maxAgents {
		delta := p.step
		if s.TotalAgents+delta > p.maxAgents {
			delta = p.maxAgents - s.TotalAgents
		}
		p.aboveStreak = 0
		p.lastDecision = now
		return Decision{
			Action: ActionScaleUp,
			Delta:  delta,
			Reason: fmt.Sprintf("queue depth %d above high water %d for %d samples", s.QueueDepth, p.highWater, p.sampleCount),
		}
	}

	if p.belowStreak >= p.sampleCount && s.TotalAgents > p.minAgents {
		delta := p.step
		if s.TotalAgents-delta < p.minAgents {
			delta = s.TotalAgents - p.minAgents
		}
		p.belowStreak = 0
		p.lastDecision = now
		return Decision{
			Action: ActionScaleDown,
			Delta:  -delta,
			Reason: fmt.Sprintf("queue depth %d below low water %d for %d samples", s.QueueDepth, p.lowWater, p.sampleCount),
		}
	}

	return Decision{Action: ActionNone, Reason: "no scaling needed"}
}
