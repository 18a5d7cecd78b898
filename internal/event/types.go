package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "agent.created", "task.failed").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Agent Lifecycle Events
// -----------------------------------------------------------------------------

// AgentCreatedEvent is emitted when an agent joins the pool.
type AgentCreatedEvent struct {
	baseEvent
	AgentID   uuid.UUID
	Name      string
	AgentType string
}

// NewAgentCreatedEvent creates an AgentCreatedEvent.
func NewAgentCreatedEvent(agentID uuid.UUID, name, agentType string) AgentCreatedEvent {
	return AgentCreatedEvent{
		baseEvent: newBaseEvent("agent.created"),
		AgentID:   agentID,
		Name:      name,
		AgentType: agentType,
	}
}

// AgentStateChangedEvent is emitted on every agent state transition.
type AgentStateChangedEvent struct {
	baseEvent
	AgentID uuid.UUID
	From    string
	To      string
}

// NewAgentStateChangedEvent creates an AgentStateChangedEvent.
func NewAgentStateChangedEvent(agentID uuid.UUID, from, to string) AgentStateChangedEvent {
	return AgentStateChangedEvent{
		baseEvent: newBaseEvent("agent.state_changed"),
		AgentID:   agentID,
		From:      from,
		To:        to,
	}
}

// AgentRetiredEvent is emitted when an agent leaves the pool, either retired
// by scaling or permanently failed.
type AgentRetiredEvent struct {
	baseEvent
	AgentID uuid.UUID
	Reason  string // "scaled_down", "failed", "requested"
}

// NewAgentRetiredEvent creates an AgentRetiredEvent.
func NewAgentRetiredEvent(agentID uuid.UUID, reason string) AgentRetiredEvent {
	return AgentRetiredEvent{
		baseEvent: newBaseEvent("agent.retired"),
		AgentID:   agentID,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Task Lifecycle Events
// -----------------------------------------------------------------------------

// TaskCreatedEvent is emitted when a task is admitted.
type TaskCreatedEvent struct {
	baseEvent
	TaskID      uuid.UUID
	Description string
	Priority    int
}

// NewTaskCreatedEvent creates a TaskCreatedEvent.
func NewTaskCreatedEvent(taskID uuid.UUID, description string, priority int) TaskCreatedEvent {
	return TaskCreatedEvent{
		baseEvent:   newBaseEvent("task.created"),
		TaskID:      taskID,
		Description: description,
		Priority:    priority,
	}
}

// TaskStatusChangedEvent is emitted on every task status transition.
type TaskStatusChangedEvent struct {
	baseEvent
	TaskID uuid.UUID
	From   string
	To     string
}

// NewTaskStatusChangedEvent creates a TaskStatusChangedEvent.
func NewTaskStatusChangedEvent(taskID uuid.UUID, from, to string) TaskStatusChangedEvent {
	return TaskStatusChangedEvent{
		baseEvent: newBaseEvent("task.status_changed"),
		TaskID:    taskID,
		From:      from,
		To:        to,
	}
}

// TaskCompletedEvent is emitted when a task finishes successfully.
type TaskCompletedEvent struct {
	baseEvent
	TaskID   uuid.UUID
	AgentID  uuid.UUID
	Duration time.Duration
}

// NewTaskCompletedEvent creates a TaskCompletedEvent.
func NewTaskCompletedEvent(taskID, agentID uuid.UUID, duration time.Duration) TaskCompletedEvent {
	return TaskCompletedEvent{
		baseEvent: newBaseEvent("task.completed"),
		TaskID:    taskID,
		AgentID:   agentID,
		Duration:  duration,
	}
}

// TaskFailedEvent is emitted when a task fails an execution attempt.
type TaskFailedEvent struct {
	baseEvent
	TaskID    uuid.UUID
	AgentID   uuid.UUID
	Reason    string
	WillRetry bool
}

// NewTaskFailedEvent creates a TaskFailedEvent.
func NewTaskFailedEvent(taskID, agentID uuid.UUID, reason string, willRetry bool) TaskFailedEvent {
	return TaskFailedEvent{
		baseEvent: newBaseEvent("task.failed"),
		TaskID:    taskID,
		AgentID:   agentID,
		Reason:    reason,
		WillRetry: willRetry,
	}
}

// -----------------------------------------------------------------------------
// Scaling Events
// -----------------------------------------------------------------------------

// ScalingDecisionEvent is emitted when the auto-scaler decides to grow or
// shrink the pool.
type ScalingDecisionEvent struct {
	baseEvent
	Direction string // "up" or "down"
	Delta     int
	PoolSize  int
	Reason    string
}

// NewScalingDecisionEvent creates a ScalingDecisionEvent.
func NewScalingDecisionEvent(direction string, delta, poolSize int, reason string) ScalingDecisionEvent {
	return ScalingDecisionEvent{
		baseEvent: newBaseEvent("scaling.decision"),
		Direction: direction,
		Delta:     delta,
		PoolSize:  poolSize,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Breaker Events
// -----------------------------------------------------------------------------

// BreakerStateChangedEvent is emitted when an agent's circuit moves.
type BreakerStateChangedEvent struct {
	baseEvent
	AgentID uuid.UUID
	From    string
	To      string
}

// NewBreakerStateChangedEvent creates a BreakerStateChangedEvent.
func NewBreakerStateChangedEvent(agentID uuid.UUID, from, to string) BreakerStateChangedEvent {
	return BreakerStateChangedEvent{
		baseEvent: newBaseEvent("breaker.state_changed"),
		AgentID:   agentID,
		From:      from,
		To:        to,
	}
}

// -----------------------------------------------------------------------------
// Metrics Events
// -----------------------------------------------------------------------------

// MetricsUpdateEvent carries a periodic snapshot of engine counters.
type MetricsUpdateEvent struct {
	baseEvent
	Agents         int
	QueueDepth     int
	TasksCompleted int
	TasksFailed    int
	StealSuccesses uint64
}

// NewMetricsUpdateEvent creates a MetricsUpdateEvent.
func NewMetricsUpdateEvent(agents, queueDepth, completed, failed int, steals uint64) MetricsUpdateEvent {
	return MetricsUpdateEvent{
		baseEvent:      newBaseEvent("metrics.update"),
		Agents:         agents,
		QueueDepth:     queueDepth,
		TasksCompleted: completed,
		TasksFailed:    failed,
		StealSuccesses: steals,
	}
}
