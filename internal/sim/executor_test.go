package sim

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/beelab/hive/internal/agent"
	"github.com/beelab/hive/internal/capability"
	"github.com/beelab/hive/internal/errors"
	"github.com/beelab/hive/internal/task"
)

func testAgent(proficiency float64) *agent.Agent {
	return &agent.Agent{
		ID:    uuid.New(),
		Name:  "worker-1",
		Type:  agent.TypeWorker,
		State: agent.StateBusy,
		Capabilities: map[string]capability.Capability{
			"research": {Name: "research", Proficiency: proficiency, LearningRate: 0.1},
		},
		TrustScore: 0.5,
	}
}

func testTask() *task.Task {
	return &task.Task{
		ID:          uuid.New(),
		Description: "collect sources",
		Status:      task.StatusRunning,
		Required: []capability.Requirement{
			{Name: "research", Weight: 1.0},
		},
	}
}

func TestExecuteReturnsResult(t *testing.T) {
	exec := NewExecutor(WithSeed(1), WithBaseLatency(0), WithJitter(0))
	a := testAgent(0.9)
	tk := testTask()

	result, err := exec.Execute(context.Background(), a, tk)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.TaskID != tk.ID || result.AgentID != a.ID {
		t.Errorf("result identity = (%v, %v)", result.TaskID, result.AgentID)
	}
	if result.Success && result.Output == "" {
		t.Error("successful result must carry output")
	}
	if !result.Success && result.Error == "" {
		t.Error("failed result must carry an error message")
	}
}

func TestPerfectFitAlwaysSucceeds(t *testing.T) {
	exec := NewExecutor(WithSeed(7), WithBaseLatency(0), WithJitter(0))
	a := testAgent(1.0)

	for i := 0; i < 50; i++ {
		result, err := exec.Execute(context.Background(), a, testTask())
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !result.Success {
			t.Fatalf("run %d failed despite proficiency 1.0", i)
		}
	}
}

func TestSuccessRateTracksFitness(t *testing.T) {
	const runs = 500

	count := func(proficiency float64) int {
		exec := NewExecutor(WithSeed(42), WithBaseLatency(0), WithJitter(0))
		a := testAgent(proficiency)
		successes := 0
		for i := 0; i < runs; i++ {
			result, err := exec.Execute(context.Background(), a, testTask())
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if result.Success {
				successes++
			}
		}
		return successes
	}

	strong := count(0.9)
	weak := count(0.1)
	if strong <= weak {
		t.Errorf("success counts: strong=%d weak=%d, want strong > weak", strong, weak)
	}
	// Probability for 0.1 proficiency is 0.28; anything near certainty
	// means the fitness weighting is not applied.
	if weak > runs/2 {
		t.Errorf("weak agent succeeded %d/%d times, want well under half", weak, runs)
	}
}

func TestExecuteHonorsCancellation(t *testing.T) {
	exec := NewExecutor(WithSeed(1), WithBaseLatency(time.Minute), WithJitter(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, testAgent(0.9), testTask())
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
	if !errors.Is(err, errors.ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestVerifierScoresByFitness(t *testing.T) {
	v := NewVerifier(3)
	a := testAgent(0.8)
	tk := testTask()

	failed := &task.Result{TaskID: tk.ID, AgentID: a.ID, Success: false}
	score, err := v.Verify(context.Background(), a, tk, failed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if score != 0 {
		t.Errorf("failed result score = %v, want 0", score)
	}

	ok := &task.Result{TaskID: tk.ID, AgentID: a.ID, Success: true}
	score, err = v.Verify(context.Background(), a, tk, ok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if score < 0.7 || score > 0.9 {
		t.Errorf("score = %v, want within 0.05 of fitness 0.8", score)
	}
}
