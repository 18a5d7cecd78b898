package scaling

import (
	"testing"
)

func newTestPolicy(opts ...Option) *Policy {
	base := []Option{
		WithMinAgents(1),
		WithMaxAgents(5),
		WithHighWater(10),
		WithLowWater(2),
		WithSampleCount(3),
		WithStep(1),
		WithCooldown(0),
	}
	return NewPolicy(append(base, opts...)...)
}

func TestSingleSpikeDoesNotScale(t *testing.T) {
	p := newTestPolicy()

	d := p.Evaluate(Sample{QueueDepth: 50, TotalAgents: 2})
	if d.Action != ActionNone {
		t.Errorf("Action after one spike = %s, want none", d.Action)
	}

	// Dropping back inside the band resets the streak.
	p.Evaluate(Sample{QueueDepth: 5, TotalAgents: 2})
	p.Evaluate(Sample{QueueDepth: 50, TotalAgents: 2})
	d = p.Evaluate(Sample{QueueDepth: 50, TotalAgents: 2})
	if d.Action != ActionNone {
		t.Errorf("streak must reset inside the band, got %s", d.Action)
	}
}

func TestSustainedLoadScalesUp(t *testing.T) {
	p := newTestPolicy()

	for i := 0; i < 2; i++ {
		if d := p.Evaluate(Sample{QueueDepth: 20, TotalAgents: 2}); d.Action != ActionNone {
			t.Fatalf("sample %d: Action = %s, want none", i+1, d.Action)
		}
	}
	d := p.Evaluate(Sample{QueueDepth: 20, TotalAgents: 2})
	if d.Action != ActionScaleUp {
		t.Fatalf("Action after 3 sustained samples = %s, want scale_up", d.Action)
	}
	if d.Delta != 1 {
		t.Errorf("Delta = %d, want 1", d.Delta)
	}
}

func TestSustainedIdleScalesDown(t *testing.T) {
	p := newTestPolicy()

	p.Evaluate(Sample{QueueDepth: 0, TotalAgents: 4})
	p.Evaluate(Sample{QueueDepth: 1, TotalAgents: 4})
	d := p.Evaluate(Sample{QueueDepth: 0, TotalAgents: 4})
	if d.Action != ActionScaleDown {
		t.Fatalf("Action = %s, want scale_down", d.Action)
	}
	if d.Delta != -1 {
		t.Errorf("Delta = %d, want -1", d.Delta)
	}
}

func TestBoundsRespected(t *testing.T) {
	p := newTestPolicy()

	// At max: sustained load produces no decision.
	for i := 0; i < 5; i++ {
		if d := p.Evaluate(Sample{QueueDepth: 20, TotalAgents: 5}); d.Action != ActionNone {
			t.Fatalf("at max pool size: Action = %s, want none", d.Action)
		}
	}

	// At min: sustained idleness produces no decision.
	p = newTestPolicy()
	for i := 0; i < 5; i++ {
		if d := p.Evaluate(Sample{QueueDepth: 0, TotalAgents: 1}); d.Action != ActionNone {
			t.Fatalf("at min pool size: Action = %s, want none", d.Action)
		}
	}
}

func TestStepClampedToBounds(t *testing.T) {
	p := newTestPolicy(WithStep(3))

	p.Evaluate(Sample{QueueDepth: 20, TotalAgents: 4})
	p.Evaluate(Sample{QueueDepth: 20, TotalAgents: 4})
	d := p.Evaluate(Sample{QueueDepth: 20, TotalAgents: 4})
	if d.Action != ActionScaleUp || d.Delta != 1 {
		t.Errorf("decision = %+v, want scale_up by 1 (clamped to max 5)", d)
	}

	p = newTestPolicy(WithStep(3))
	p.Evaluate(Sample{QueueDepth: 0, TotalAgents: 2})
	p.Evaluate(Sample{QueueDepth: 0, TotalAgents: 2})
	d = p.Evaluate(Sample{QueueDepth: 0, TotalAgents: 2})
	if d.Action != ActionScaleDown || d.Delta != -1 {
		t.Errorf("decision = %+v, want scale_down by 1 (clamped to min 1)", d)
	}
}

func TestStreakResetsAfterDecision(t *testing.T) {
	p := newTestPolicy()

	for i := 0; i < 3; i++ {
		p.Evaluate(Sample{QueueDepth: 20, TotalAgents: 2})
	}
	// The next sample starts a fresh streak.
	d := p.Evaluate(Sample{QueueDepth: 20, TotalAgents: 3})
	if d.Action != ActionNone {
		t.Errorf("Action immediately after a decision = %s, want none", d.Action)
	}
}
