// Package event provides a pub-sub event bus for decoupled inter-component
// communication in the hive engine.
//
// The coordinator publishes lifecycle events without knowing who will
// receive them; logging, metrics, and the CLI subscribe without the
// coordinator depending on them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Agent Lifecycle:
//   - [AgentCreatedEvent]: Emitted when an agent joins the pool
//   - [AgentStateChangedEvent]: Emitted on every agent state transition
//   - [AgentRetiredEvent]: Emitted when an agent leaves the pool
//
// Task Lifecycle:
//   - [TaskCreatedEvent]: Emitted when a task is admitted
//   - [TaskStatusChangedEvent]: Emitted on every task status transition
//   - [TaskCompletedEvent]: Emitted when a task finishes successfully
//   - [TaskFailedEvent]: Emitted when a task fails an execution attempt
//
// Engine Events:
//   - [ScalingDecisionEvent]: Emitted when the auto-scaler grows or shrinks the pool
//   - [BreakerStateChangedEvent]: Emitted when an agent's circuit moves
//   - [MetricsUpdateEvent]: Periodic snapshot of engine counters
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Multiple goroutines can publish
// and subscribe concurrently. Handlers are called synchronously and protected
// against panics - a panicking handler will not prevent other handlers from
// being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("task.completed", func(e event.Event) {
//	    done := e.(event.TaskCompletedEvent)
//	    log.Printf("task %s completed", done.TaskID)
//	})
//
//	// Subscribe to a whole category with a glob pattern
//	bus.SubscribePattern("agent.*", func(e event.Event) {
//	    log.Printf("agent event: %s", e.EventType())
//	})
//
//	// Publish events
//	bus.Publish(event.NewTaskCreatedEvent(id, "index the corpus", 3))
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - agent.created, agent.state_changed, agent.retired
//   - task.created, task.status_changed, task.completed, task.failed
//   - scaling.decision
//   - breaker.state_changed
//   - metrics.update
package event
