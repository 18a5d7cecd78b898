package agent

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beelab/hive/internal/capability"
	"github.com/beelab/hive/internal/errors"
)

// Default registry tunables.
const (
	defaultTrustAlpha       = 0.1
	defaultEnergyDecayRate  = 2.0
	defaultEnergyRecovery   = 5.0
	defaultAssignmentCost   = 10.0
	defaultDisuseDecay      = 0.005
	defaultLearnedThreshold = 25
)

// Option configures a Registry.
type Option func(*Registry)

// WithTrustAlpha sets the exponential smoothing factor applied to the trust
// score on each recorded outcome.
func WithTrustAlpha(a float64) Option {
	return func(r *Registry) { r.trustAlpha = a }
}

// WithMinEnergy sets the energy floor below which agents are ineligible for
// assignment.
func WithMinEnergy(e float64) Option {
	return func(r *Registry) { r.minEnergy = e }
}

// WithEnergyDecayRate sets the energy lost per evolution cycle by non-idle
// agents.
func WithEnergyDecayRate(rate float64) Option {
	return func(r *Registry) { r.energyDecayRate = rate }
}

// WithEnergyRecoveryRate sets the energy regained per evolution cycle by
// idle agents.
func WithEnergyRecoveryRate(rate float64) Option {
	return func(r *Registry) { r.energyRecovery = rate }
}

// WithAssignmentCost sets the energy spent by an agent per completed
// assignment.
func WithAssignmentCost(cost float64) Option {
	return func(r *Registry) { r.assignmentCost = cost }
}

// WithLearnedCapabilities sets the capabilities an agent may acquire during
// evolution once its experience count crosses successive thresholds.
func WithLearnedCapabilities(caps []capability.Capability) Option {
	return func(r *Registry) { r.learnable = caps }
}

// WithLearnedThreshold sets the experience count at which the first learned
// capability is acquired. Each subsequent capability requires double the
// previous threshold.
func WithLearnedThreshold(n int) Option {
	return func(r *Registry) { r.learnedThreshold = n }
}

// Registry owns the set of agents and their lifecycle state machine.
// All methods are safe for concurrent use; readers receive copies.
type Registry struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]*Agent

	trustAlpha       float64
	minEnergy        float64
	energyDecayRate  float64
	energyRecovery   float64
	assignmentCost   float64
	disuseDecay      float64
	learnable        []capability.Capability
	learnedThreshold int
}

// NewRegistry creates an empty Registry with the given options.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		agents:           make(map[uuid.UUID]*Agent),
		trustAlpha:       defaultTrustAlpha,
		minEnergy:        DefaultMinEnergy,
		energyDecayRate:  defaultEnergyDecayRate,
		energyRecovery:   defaultEnergyRecovery,
		assignmentCost:   defaultAssignmentCost,
		disuseDecay:      defaultDisuseDecay,
		learnedThreshold: defaultLearnedThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates the spec and adds a new idle agent, returning its ID.
func (r *Registry) Register(spec Spec) (uuid.UUID, error) {
	if spec.Name == "" {
		return uuid.Nil, errors.NewValidationError("name", "must not be empty")
	}
	if !spec.Type.Valid() {
		return uuid.Nil, errors.NewValidationError("type", fmt.Sprintf("unknown agent type %q", spec.Type))
	}
	if len(spec.Capabilities) == 0 {
		return uuid.Nil, errors.NewValidationError("capabilities", "must not be empty")
	}
	caps := make(map[string]capability.Capability, len(spec.Capabilities))
	for i, c := range spec.Capabilities {
		if !c.Valid() {
			return uuid.Nil, errors.NewValidationError(
				fmt.Sprintf("capabilities[%d]", i),
				fmt.Sprintf("invalid capability %q: proficiency and learning_rate must be in [0,1]", c.Name),
			)
		}
		if _, dup := caps[c.Name]; dup {
			return uuid.Nil, errors.NewValidationError(
				fmt.Sprintf("capabilities[%d]", i),
				fmt.Sprintf("duplicate capability %q", c.Name),
			)
		}
		caps[c.Name] = c
	}

	now := time.Now()
	a := &Agent{
		ID:           uuid.New(),
		Name:         spec.Name,
		Type:         spec.Type,
		State:        StateIdle,
		Capabilities: caps,
		Energy:       MaxEnergy,
		TrustScore:   DefaultTrust,
		CreatedAt:    now,
		LastActive:   now,
	}

	r.mu.Lock()
	r.agents[a.ID] = a
	r.mu.Unlock()
	return a.ID, nil
}

// Get returns a copy of the agent with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrAgentNotFound, id)
	}
	return a.clone(), nil
}

// Transition moves the agent to the new state, rejecting illegal
// transitions (e.g. Suspended directly to Busy).
func (r *Registry) Transition(id uuid.UUID, next State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrAgentNotFound, id)
	}
	if !a.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, a.State, next)
	}
	a.State = next
	a.LastActive = time.Now()
	return nil
}

// RecordOutcome adjusts the agent's proficiency for the named capability
// and its trust score after a task outcome. The capability moves by the
// learning-rate-scaled adjustment; trust is updated by exponential
// smoothing toward 1.0 on success and 0.0 on failure. Completed work also
// costs energy.
func (r *Registry) RecordOutcome(id uuid.UUID, capName string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrAgentNotFound, id)
	}

	if c, held := a.Capabilities[capName]; held {
		a.Capabilities[capName] = c.Adjusted(success)
	}

	target := 0.0
	if success {
		target = 1.0
	}
	a.TrustScore = capability.Clamp(a.TrustScore*(1-r.trustAlpha) + target*r.trustAlpha)

	a.ExperienceCount++
	a.Energy = clampEnergy(a.Energy - r.assignmentCost)
	a.LastActive = time.Now()
	return nil
}

// ListEligible returns copies of agents eligible for assignment: idle, above
// the energy floor, and holding every required capability by name.
// Proficiency gating is the scheduler's concern. Results are ordered by
// least-recently-active to keep selection deterministic.
func (r *Registry) ListEligible(required []capability.Requirement) []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Agent
	for _, a := range r.agents {
		if a.State != StateIdle {
			continue
		}
		if a.Energy < r.minEnergy {
			continue
		}
		if !a.HasCapabilities(required) {
			continue
		}
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActive.Equal(out[j].LastActive) {
			return out[i].LastActive.Before(out[j].LastActive)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Retire removes an idle agent from the registry. Busy agents cannot be
// retired; the auto-scaler retries on a later pass.
func (r *Registry) Retire(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrAgentNotFound, id)
	}
	if a.State == StateBusy {
		return fmt.Errorf("%w: cannot retire busy agent %s", errors.ErrAgentBusy, id)
	}
	delete(r.agents, id)
	return nil
}

// MarkFailed transitions the agent to the failed state from any live state,
// removing it from the eligible pool permanently.
func (r *Registry) MarkFailed(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrAgentNotFound, id)
	}
	if a.State == StateFailed {
		return nil
	}
	a.State = StateFailed
	a.LastActive = time.Now()
	return nil
}

// Count returns the number of registered agents, excluding failed ones.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.agents {
		if a.State != StateFailed {
			n++
		}
	}
	return n
}

// CountByState returns the number of agents per state.
func (r *Registry) CountByState() map[State]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[State]int)
	for _, a := range r.agents {
		out[a.State]++
	}
	return out
}

// List returns copies of all registered agents.
func (r *Registry) List() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Restore replaces the registry contents with the given agents. Used when
// loading a persisted snapshot.
func (r *Registry) Restore(agents []*Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[uuid.UUID]*Agent, len(agents))
	for _, a := range agents {
		r.agents[a.ID] = a.clone()
	}
}

func clampEnergy(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxEnergy {
		return MaxEnergy
	}
	return v
}
