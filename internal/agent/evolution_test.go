package agent

import (
	"testing"

	"github.com/beelab/hive/internal/capability"
)

func TestEvolveCycleRecoversIdleEnergy(t *testing.T) {
	r := NewRegistry(WithEnergyRecoveryRate(5), WithAssignmentCost(30))
	id, _ := r.Register(workerSpec("w1"))
	_ = r.RecordOutcome(id, "data_processing", true) // energy 70

	result := r.EvolveCycle()
	if len(result.Evolved) != 1 {
		t.Fatalf("len(Evolved) = %d, want 1", len(result.Evolved))
	}

	a, _ := r.Get(id)
	if a.Energy != 75 {
		t.Errorf("Energy = %v, want 75", a.Energy)
	}
	if a.State != StateIdle {
		t.Errorf("State after cycle = %s, want idle", a.State)
	}
}

func TestEvolveCycleDecaysBusyEnergy(t *testing.T) {
	r := NewRegistry(WithEnergyDecayRate(2))
	id, _ := r.Register(workerSpec("w1"))
	_ = r.Transition(id, StateBusy)

	r.EvolveCycle()

	a, _ := r.Get(id)
	if a.Energy != 98 {
		t.Errorf("Energy = %v, want 98", a.Energy)
	}
	if a.State != StateBusy {
		t.Errorf("busy agents must not change state, got %s", a.State)
	}
}

func TestEvolveCycleAppliesDisuseDecay(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Register(workerSpec("w1"))

	before, _ := r.Get(id)
	r.EvolveCycle()
	after, _ := r.Get(id)

	if after.Proficiency("research") >= before.Proficiency("research") {
		t.Errorf("expected disuse decay: before %v, after %v",
			before.Proficiency("research"), after.Proficiency("research"))
	}
}

func TestEvolveCycleSkipsSuspended(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Register(workerSpec("w1"))
	_ = r.Transition(id, StateSuspended)

	before, _ := r.Get(id)
	result := r.EvolveCycle()
	after, _ := r.Get(id)

	if len(result.Evolved) != 0 {
		t.Errorf("suspended agents must not evolve, got %d", len(result.Evolved))
	}
	if after.Energy != before.Energy {
		t.Errorf("suspended agent energy changed: %v -> %v", before.Energy, after.Energy)
	}
}

func TestLearnedCapabilityAcquisition(t *testing.T) {
	learnable := []capability.Capability{
		{Name: "general_problem_solving", Proficiency: 0.1, LearningRate: 0.2},
		{Name: "coordination", Proficiency: 0.1, LearningRate: 0.2},
	}
	r := NewRegistry(
		WithLearnedCapabilities(learnable),
		WithLearnedThreshold(2),
		WithAssignmentCost(0),
	)
	id, _ := r.Register(workerSpec("w1"))

	// Below threshold: nothing learned.
	_ = r.RecordOutcome(id, "data_processing", true)
	result := r.EvolveCycle()
	if len(result.Learned[id]) != 0 {
		t.Fatalf("learned below threshold: %v", result.Learned[id])
	}

	// Cross the first threshold (2) but not the second (4).
	_ = r.RecordOutcome(id, "data_processing", true)
	result = r.EvolveCycle()
	if got := result.Learned[id]; len(got) != 1 || got[0] != "general_problem_solving" {
		t.Fatalf("Learned = %v, want [general_problem_solving]", got)
	}

	a, _ := r.Get(id)
	if _, held := a.Capabilities["general_problem_solving"]; !held {
		t.Error("agent should hold the learned capability")
	}
	if _, held := a.Capabilities["coordination"]; held {
		t.Error("second capability requires double the threshold")
	}

	// Cross the second threshold (4).
	_ = r.RecordOutcome(id, "data_processing", true)
	_ = r.RecordOutcome(id, "data_processing", true)
	result = r.EvolveCycle()
	if got := result.Learned[id]; len(got) != 1 || got[0] != "coordination" {
		t.Fatalf("Learned = %v, want [coordination]", got)
	}
}

func TestLearnerTypeHalvesThreshold(t *testing.T) {
	learnable := []capability.Capability{
		{Name: "general_problem_solving", Proficiency: 0.1, LearningRate: 0.2},
	}
	r := NewRegistry(
		WithLearnedCapabilities(learnable),
		WithLearnedThreshold(4),
		WithAssignmentCost(0),
	)
	id, _ := r.Register(Spec{
		Name: "l1",
		Type: TypeLearner,
		Capabilities: []capability.Capability{
			{Name: "data_processing", Proficiency: 0.5, LearningRate: 0.3},
		},
	})

	_ = r.RecordOutcome(id, "data_processing", true)
	_ = r.RecordOutcome(id, "data_processing", true)
	result := r.EvolveCycle()

	if got := result.Learned[id]; len(got) != 1 {
		t.Fatalf("learner should unlock at half threshold, Learned = %v", got)
	}
}
