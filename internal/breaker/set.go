package breaker

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// StateChange describes one circuit transition, reported to the optional
// observer.
type StateChange struct {
	AgentID uuid.UUID
	From    State
	To      State
}

// Set manages one Breaker per agent, creating them lazily with shared
// tunables. The optional observer is invoked outside operation locks
// whenever a recorded outcome moves a circuit.
type Set struct {
	mu       sync.Mutex
	breakers map[uuid.UUID]*Breaker
	opts     []Option
	observer func(StateChange)
}

// NewSet creates an empty Set. The given options apply to every breaker it
// creates.
func NewSet(opts ...Option) *Set {
	return &Set{
		breakers: make(map[uuid.UUID]*Breaker),
		opts:     opts,
	}
}

// Observe registers the state-change observer. Must be called before the set
// is shared.
func (s *Set) Observe(fn func(StateChange)) {
	s.observer = fn
}

// get returns the breaker for an agent, creating it on first use.
func (s *Set) get(agentID uuid.UUID) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[agentID]
	if !ok {
		b = New(s.opts...)
		s.breakers[agentID] = b
	}
	return b
}

// Allow reports whether the agent's circuit admits a task right now.
func (s *Set) Allow(agentID uuid.UUID) bool {
	return s.get(agentID).Allow()
}

// RecordSuccess records a successful execution for the agent.
func (s *Set) RecordSuccess(agentID uuid.UUID) {
	b := s.get(agentID)
	before := b.State()
	b.RecordSuccess()
	s.notify(agentID, before, b.State())
}

// RecordFailure records a failed execution for the agent.
func (s *Set) RecordFailure(agentID uuid.UUID) {
	b := s.get(agentID)
	before := b.State()
	b.RecordFailure()
	s.notify(agentID, before, b.State())
}

// State returns the current state of the agent's circuit.
func (s *Set) State(agentID uuid.UUID) State {
	return s.get(agentID).State()
}

// Remove drops the breaker for a retired agent.
func (s *Set) Remove(agentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.breakers, agentID)
}

// OpenAgents returns the IDs of agents whose circuits are currently open,
// in stable order.
func (s *Set) OpenAgents() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for id, b := range s.breakers {
		if b.State() == StateOpen {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (s *Set) notify(agentID uuid.UUID, from, to State) {
	if s.observer == nil || from == to {
		return
	}
	s.observer(StateChange{AgentID: agentID, From: from, To: to})
}
