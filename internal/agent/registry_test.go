package agent

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/beelab/hive/internal/capability"
	"github.com/beelab/hive/internal/errors"
)

func workerSpec(name string) Spec {
	return Spec{
		Name: name,
		Type: TypeWorker,
		Capabilities: []capability.Capability{
			{Name: "data_processing", Proficiency: 0.8, LearningRate: 0.2},
			{Name: "research", Proficiency: 0.4, LearningRate: 0.1},
		},
	}
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		spec Spec
	}{
		{"empty name", Spec{Type: TypeWorker, Capabilities: []capability.Capability{{Name: "a", Proficiency: 0.5, LearningRate: 0.1}}}},
		{"unknown type", Spec{Name: "x", Type: "wizard", Capabilities: []capability.Capability{{Name: "a", Proficiency: 0.5, LearningRate: 0.1}}}},
		{"no capabilities", Spec{Name: "x", Type: TypeWorker}},
		{"proficiency out of bounds", Spec{Name: "x", Type: TypeWorker, Capabilities: []capability.Capability{{Name: "a", Proficiency: 1.5, LearningRate: 0.1}}}},
		{"duplicate capability", Spec{Name: "x", Type: TypeWorker, Capabilities: []capability.Capability{
			{Name: "a", Proficiency: 0.5, LearningRate: 0.1},
			{Name: "a", Proficiency: 0.6, LearningRate: 0.1},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Register(tt.spec); err == nil {
				t.Error("expected validation error")
			} else {
				var ve *errors.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			}
		})
	}

	if r.Count() != 0 {
		t.Errorf("invalid specs must not enter the registry, count = %d", r.Count())
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	id, err := r.Register(workerSpec("w1"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	a, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if a.State != StateIdle {
		t.Errorf("State = %s, want idle", a.State)
	}
	if a.Energy != MaxEnergy {
		t.Errorf("Energy = %v, want %v", a.Energy, MaxEnergy)
	}
	if a.TrustScore != DefaultTrust {
		t.Errorf("TrustScore = %v, want %v", a.TrustScore, DefaultTrust)
	}
}

func TestTransitionLegality(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Register(workerSpec("w1"))

	if err := r.Transition(id, StateBusy); err != nil {
		t.Fatalf("Idle -> Busy should be legal: %v", err)
	}
	if err := r.Transition(id, StateIdle); err != nil {
		t.Fatalf("Busy -> Idle should be legal: %v", err)
	}
	if err := r.Transition(id, StateSuspended); err != nil {
		t.Fatalf("Idle -> Suspended should be legal: %v", err)
	}

	// Suspended agents must not go directly to Busy.
	if err := r.Transition(id, StateBusy); !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("Suspended -> Busy: error = %v, want ErrInvalidTransition", err)
	}

	if err := r.Transition(id, StateIdle); err != nil {
		t.Fatalf("Suspended -> Idle should be legal: %v", err)
	}

	if err := r.Transition(uuid.New(), StateIdle); !errors.Is(err, errors.ErrAgentNotFound) {
		t.Errorf("unknown agent: error = %v, want ErrAgentNotFound", err)
	}
}

func TestFailedIsTerminal(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Register(workerSpec("w1"))

	if err := r.MarkFailed(id); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	if err := r.Transition(id, StateIdle); !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("Failed -> Idle: error = %v, want ErrInvalidTransition", err)
	}
	if r.Count() != 0 {
		t.Errorf("failed agents must not count toward the pool, count = %d", r.Count())
	}
}

func TestRecordOutcomeAdjustsProficiencyAndTrust(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Register(workerSpec("w1"))

	if err := r.RecordOutcome(id, "data_processing", true); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}

	a, _ := r.Get(id)
	// 0.8 + 0.2*0.1
	if got := a.Proficiency("data_processing"); math.Abs(got-0.82) > 1e-9 {
		t.Errorf("proficiency after success = %v, want 0.82", got)
	}
	// 0.5*0.9 + 1.0*0.1
	if math.Abs(a.TrustScore-0.55) > 1e-9 {
		t.Errorf("trust after success = %v, want 0.55", a.TrustScore)
	}
	if a.ExperienceCount != 1 {
		t.Errorf("ExperienceCount = %d, want 1", a.ExperienceCount)
	}

	if err := r.RecordOutcome(id, "data_processing", false); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}
	a, _ = r.Get(id)
	// 0.82 - 0.2*0.05
	if got := a.Proficiency("data_processing"); math.Abs(got-0.81) > 1e-9 {
		t.Errorf("proficiency after failure = %v, want 0.81", got)
	}
	if a.TrustScore >= 0.55 {
		t.Errorf("trust should drop after failure, got %v", a.TrustScore)
	}
}

func TestListEligibleFilters(t *testing.T) {
	r := NewRegistry(WithMinEnergy(50))
	idle, _ := r.Register(workerSpec("idle"))
	busy, _ := r.Register(workerSpec("busy"))
	_ = r.Transition(busy, StateBusy)
	suspended, _ := r.Register(workerSpec("suspended"))
	_ = r.Transition(suspended, StateSuspended)

	// Drain the energy of one idle agent below the floor.
	tired, _ := r.Register(workerSpec("tired"))
	for i := 0; i < 6; i++ {
		_ = r.RecordOutcome(tired, "data_processing", true)
	}

	required := []capability.Requirement{{Name: "data_processing", MinProficiency: 0.5}}
	eligible := r.ListEligible(required)

	if len(eligible) != 1 {
		t.Fatalf("len(eligible) = %d, want 1", len(eligible))
	}
	if eligible[0].ID != idle {
		t.Errorf("eligible agent = %s, want %s", eligible[0].ID, idle)
	}

	// Agents lacking a required capability by name are excluded.
	missing := r.ListEligible([]capability.Requirement{{Name: "translation", MinProficiency: 0.1}})
	if len(missing) != 0 {
		t.Errorf("expected no agents holding %q, got %d", "translation", len(missing))
	}
}

func TestRetire(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Register(workerSpec("w1"))
	busy, _ := r.Register(workerSpec("w2"))
	_ = r.Transition(busy, StateBusy)

	if err := r.Retire(busy); !errors.Is(err, errors.ErrAgentBusy) {
		t.Errorf("Retire(busy) error = %v, want ErrAgentBusy", err)
	}
	if err := r.Retire(id); err != nil {
		t.Fatalf("Retire(idle) error = %v", err)
	}
	if _, err := r.Get(id); !errors.Is(err, errors.ErrAgentNotFound) {
		t.Errorf("retired agent still present: %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Register(workerSpec("w1"))

	a, _ := r.Get(id)
	a.Capabilities["data_processing"] = capability.Capability{Name: "data_processing", Proficiency: 0.0, LearningRate: 0.0}
	a.TrustScore = 0.0

	fresh, _ := r.Get(id)
	if fresh.Proficiency("data_processing") != 0.8 {
		t.Error("mutating a returned copy must not affect the registry")
	}
	if fresh.TrustScore != DefaultTrust {
		t.Error("mutating a returned copy must not affect trust")
	}
}
