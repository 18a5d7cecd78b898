package event

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var received []Event
	bus.Subscribe("task.created", func(e Event) {
		received = append(received, e)
	})

	id := uuid.New()
	bus.Publish(NewTaskCreatedEvent(id, "index the corpus", 3))
	bus.Publish(NewAgentCreatedEvent(uuid.New(), "w1", "worker"))

	if len(received) != 1 {
		t.Fatalf("len(received) = %d, want 1", len(received))
	}
	created, ok := received[0].(TaskCreatedEvent)
	if !ok {
		t.Fatalf("received %T, want TaskCreatedEvent", received[0])
	}
	if created.TaskID != id || created.Priority != 3 {
		t.Errorf("event = %+v", created)
	}
	if created.Timestamp().IsZero() {
		t.Error("event timestamp must be set")
	}
}

func TestSubscribePattern(t *testing.T) {
	bus := NewBus()

	var taskEvents, stateEvents int
	if _, err := bus.SubscribePattern("task.*", func(Event) { taskEvents++ }); err != nil {
		t.Fatalf("SubscribePattern() error = %v", err)
	}
	if _, err := bus.SubscribePattern("*.state_changed", func(Event) { stateEvents++ }); err != nil {
		t.Fatalf("SubscribePattern() error = %v", err)
	}

	bus.Publish(NewTaskCreatedEvent(uuid.New(), "t", 1))
	bus.Publish(NewTaskFailedEvent(uuid.New(), uuid.New(), "boom", true))
	bus.Publish(NewAgentStateChangedEvent(uuid.New(), "idle", "busy"))
	bus.Publish(NewScalingDecisionEvent("up", 1, 4, "queue pressure"))

	if taskEvents != 2 {
		t.Errorf("task.* matches = %d, want 2", taskEvents)
	}
	if stateEvents != 1 {
		t.Errorf("*.state_changed matches = %d, want 1", stateEvents)
	}
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	bus := NewBus()

	var count int
	bus.SubscribeAll(func(Event) { count++ })

	bus.Publish(NewTaskCreatedEvent(uuid.New(), "t", 1))
	bus.Publish(NewBreakerStateChangedEvent(uuid.New(), "closed", "open"))
	bus.Publish(NewMetricsUpdateEvent(2, 5, 10, 1, 3))

	if count != 3 {
		t.Errorf("wildcard handler calls = %d, want 3", count)
	}
}

func TestExactHandlersRunBeforePatterns(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribePattern("task.*", func(Event) { order = append(order, "pattern") })
	bus.Subscribe("task.created", func(Event) { order = append(order, "exact") })

	bus.Publish(NewTaskCreatedEvent(uuid.New(), "t", 1))

	if len(order) != 2 || order[0] != "exact" || order[1] != "pattern" {
		t.Errorf("dispatch order = %v, want [exact pattern]", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	var count int
	id := bus.Subscribe("task.created", func(Event) { count++ })
	patternID, _ := bus.SubscribePattern("agent.*", func(Event) { count++ })

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe(exact) = false, want true")
	}
	if !bus.Unsubscribe(patternID) {
		t.Fatal("Unsubscribe(pattern) = false, want true")
	}
	if bus.Unsubscribe("nope") {
		t.Error("Unsubscribe(unknown) = true, want false")
	}

	bus.Publish(NewTaskCreatedEvent(uuid.New(), "t", 1))
	bus.Publish(NewAgentCreatedEvent(uuid.New(), "w1", "worker"))
	if count != 0 {
		t.Errorf("unsubscribed handlers ran %d times", count)
	}
}

func TestSubscribePatternRejectsBadGlob(t *testing.T) {
	bus := NewBus()
	if _, err := bus.SubscribePattern("task.[", func(Event) {}); err == nil {
		t.Error("expected a compile error for an invalid pattern")
	}
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()

	var called bool
	bus.Subscribe("task.created", func(Event) { panic("boom") })
	bus.Subscribe("task.created", func(Event) { called = true })

	bus.Publish(NewTaskCreatedEvent(uuid.New(), "t", 1))

	if !called {
		t.Error("handler after the panicking one was not called")
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus()
	bus.SubscribeAll(func(Event) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(NewTaskCreatedEvent(uuid.New(), "t", j))
				id := bus.Subscribe("task.created", func(Event) {})
				bus.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()

	if got := bus.SubscriptionCount(); got != 1 {
		t.Errorf("SubscriptionCount = %d, want 1", got)
	}
}

func TestClear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("task.created", func(Event) {})
	bus.SubscribeAll(func(Event) {})

	bus.Clear()
	if got := bus.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount after Clear = %d, want 0", got)
	}
}
