package scaling

import (
	"testing"
	"time"

	"github.com/beelab/hive/internal/event"
)

func TestMonitorPublishesDecisions(t *testing.T) {
	bus := event.NewBus()

	var published []event.ScalingDecisionEvent
	bus.Subscribe("scaling.decision", func(e event.Event) {
		published = append(published, e.(event.ScalingDecisionEvent))
	})

	depth := 20
	sample := func() Sample {
		return Sample{QueueDepth: depth, BusyAgents: 2, TotalAgents: 2}
	}
	policy := NewPolicy(
		WithMaxAgents(5),
		WithHighWater(10),
		WithSampleCount(3),
		WithCooldown(0),
	)
	m := NewMonitor(bus, policy, sample, time.Minute)

	var decisions []Decision
	m.OnDecision(func(d Decision) { decisions = append(decisions, d) })

	for i := 0; i < 2; i++ {
		if d := m.Tick(); d.Action != ActionNone {
			t.Fatalf("tick %d: Action = %s, want none", i+1, d.Action)
		}
	}
	d := m.Tick()
	if d.Action != ActionScaleUp {
		t.Fatalf("Action = %s, want scale_up", d.Action)
	}

	if len(decisions) != 1 {
		t.Fatalf("handler calls = %d, want 1", len(decisions))
	}
	if len(published) != 1 {
		t.Fatalf("published events = %d, want 1", len(published))
	}
	if published[0].Direction != "scale_up" || published[0].Delta != 1 || published[0].PoolSize != 2 {
		t.Errorf("event = %+v", published[0])
	}
}

func TestMonitorQuietWhenBalanced(t *testing.T) {
	bus := event.NewBus()
	var count int
	bus.Subscribe("scaling.decision", func(event.Event) { count++ })

	sample := func() Sample { return Sample{QueueDepth: 5, TotalAgents: 3} }
	m := NewMonitor(bus, NewPolicy(WithHighWater(10), WithLowWater(2), WithCooldown(0)), sample, time.Minute)

	for i := 0; i < 10; i++ {
		m.Tick()
	}
	if count != 0 {
		t.Errorf("published %d decisions for balanced load, want 0", count)
	}
}
