package agent

import (
	"time"

	"github.com/google/uuid"

	"github.com/beelab/hive/internal/capability"
)

// Type categorizes an agent's role in the hive.
type Type string

const (
	// TypeWorker is a general-purpose task executor.
	TypeWorker Type = "worker"

	// TypeCoordinator handles coordination-heavy tasks.
	TypeCoordinator Type = "coordinator"

	// TypeSpecialist executes tasks within a narrow capability set.
	TypeSpecialist Type = "specialist"

	// TypeLearner trades throughput for faster capability growth.
	TypeLearner Type = "learner"
)

// String returns the string representation of the agent type.
func (t Type) String() string {
	return string(t)
}

// Valid reports whether t is a known agent type.
func (t Type) Valid() bool {
	switch t {
	case TypeWorker, TypeCoordinator, TypeSpecialist, TypeLearner:
		return true
	}
	return false
}

// State represents the current lifecycle state of an agent.
type State string

const (
	// StateIdle indicates the agent is available for assignment.
	StateIdle State = "idle"

	// StateBusy indicates the agent is executing a task.
	StateBusy State = "busy"

	// StateLearning indicates the agent is in a background evolution cycle.
	// Learning is exclusive with Busy.
	StateLearning State = "learning"

	// StateSuspended indicates the circuit breaker has excluded the agent
	// from matching until a cool-down elapses.
	StateSuspended State = "suspended"

	// StateFailed indicates an unrecoverable fault. Failed agents are
	// removed from the eligible pool.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// legalTransitions is the agent lifecycle state machine. Suspended agents
// must pass through Idle (granted by the circuit breaker after cool-down)
// before they can become Busy again.
var legalTransitions = map[State][]State{
	StateIdle:      {StateBusy, StateLearning, StateSuspended, StateFailed},
	StateBusy:      {StateIdle, StateSuspended, StateFailed},
	StateLearning:  {StateIdle, StateFailed},
	StateSuspended: {StateIdle, StateFailed},
	StateFailed:    {},
}

// CanTransition reports whether the transition from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Energy bounds and defaults.
const (
	// MaxEnergy is the upper bound of the energy gauge.
	MaxEnergy = 100.0

	// DefaultMinEnergy is the eligibility floor: agents below it are not
	// offered new assignments until they recover.
	DefaultMinEnergy = 20.0

	// DefaultTrust is the trust score assigned at registration.
	DefaultTrust = 0.5
)

// Agent is a stateful worker entity with named capabilities. Records are
// owned exclusively by the Registry; callers receive copies.
type Agent struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Type  Type      `json:"type"`
	State State     `json:"state"`

	// Capabilities maps capability name to the agent's current skill.
	Capabilities map[string]capability.Capability `json:"capabilities"`

	// Energy is the activity gauge in [0, 100]. It decays with work and
	// recovers while idle.
	Energy float64 `json:"energy"`

	// ExperienceCount is the number of task outcomes recorded for this agent.
	ExperienceCount int `json:"experience_count"`

	// TrustScore in [0, 1] is updated by exponential smoothing over task
	// outcomes and used as a matching tie-breaker.
	TrustScore float64 `json:"trust_score"`

	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// clone returns a deep copy of the agent, including its capability map.
func (a *Agent) clone() *Agent {
	cp := *a
	cp.Capabilities = make(map[string]capability.Capability, len(a.Capabilities))
	for name, c := range a.Capabilities {
		cp.Capabilities[name] = c
	}
	return &cp
}

// Proficiency returns the agent's proficiency for the named capability, or
// 0.0 when the agent does not hold it.
func (a *Agent) Proficiency(name string) float64 {
	if c, ok := a.Capabilities[name]; ok {
		return c.Proficiency
	}
	return 0.0
}

// HasCapabilities reports whether the agent holds every named requirement,
// regardless of proficiency level. Proficiency gating belongs to the
// scheduler.
func (a *Agent) HasCapabilities(required []capability.Requirement) bool {
	for _, req := range required {
		if _, ok := a.Capabilities[req.Name]; !ok {
			return false
		}
	}
	return true
}

// Spec describes an agent registration. ID, state, energy, and trust are
// assigned by the Registry.
type Spec struct {
	Name         string                  `json:"name" mapstructure:"name"`
	Type         Type                    `json:"type" mapstructure:"type"`
	Capabilities []capability.Capability `json:"capabilities" mapstructure:"capabilities"`
}
