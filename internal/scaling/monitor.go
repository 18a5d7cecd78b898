package scaling

import (
	"context"
	"sync"
	"time"

	"github.com/beelab/hive/internal/event"
)

// SampleFunc returns one best-effort load observation. Implementations must
// not block on engine locks held by the assignment path.
type SampleFunc func() Sample

// Monitor periodically samples engine load and applies the scaling policy.
// Non-none decisions are published on the event bus and handed to the
// registered decision handlers; the monitor itself never mutates the pool.
type Monitor struct {
	mu       sync.Mutex
	bus      *event.Bus
	policy   *Policy
	sample   SampleFunc
	interval time.Duration
	handlers []func(Decision)
	cancel   context.CancelFunc
}

// NewMonitor creates a Monitor that evaluates the policy against one sample
// per interval.
func NewMonitor(bus *event.Bus, policy *Policy, sample SampleFunc, interval time.Duration) *Monitor {
	return &Monitor{
		bus:      bus,
		policy:   policy,
		sample:   sample,
		interval: interval,
	}
}

// OnDecision registers a callback that is invoked for every non-none
// scaling decision. Multiple handlers may be registered.
func (m *Monitor) OnDecision(handler func(Decision)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// Start runs the sampling loop. It blocks until the context is cancelled or
// Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick takes one sample and evaluates the policy. Exposed so callers can
// drive evaluation directly instead of running the loop.
func (m *Monitor) Tick() Decision {
	s := m.sample()
	decision := m.policy.Evaluate(s)
	if decision.Action == ActionNone {
		return decision
	}

	m.mu.Lock()
	handlers := make([]func(Decision), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	m.bus.Publish(event.NewScalingDecisionEvent(
		string(decision.Action), decision.Delta, s.TotalAgents, decision.Reason,
	))
	for _, h := range handlers {
		h(decision)
	}
	return decision
}

// Stop cancels the monitor loop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
