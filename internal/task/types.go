package task

import (
	"time"

	"github.com/google/uuid"

	"github.com/beelab/hive/internal/capability"
)

// Status represents the current state of a task.
type Status string

const (
	// StatusPending indicates the task is admitted but has unmet dependencies.
	StatusPending Status = "pending"

	// StatusReady indicates every dependency is completed and the task is
	// queued for assignment.
	StatusReady Status = "ready"

	// StatusAssigned indicates the task has been matched to an agent but
	// execution has not started.
	StatusAssigned Status = "assigned"

	// StatusRunning indicates the task is actively being executed.
	StatusRunning Status = "running"

	// StatusCompleted indicates the task finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the task failed and exhausted all retries.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the task was cancelled before completion.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if this status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Schedulable returns true if the task may still receive an assignment.
func (s Status) Schedulable() bool {
	return s == StatusPending || s == StatusReady
}

// Task is a unit of work with required capabilities, a priority, and
// dependencies on other tasks. Higher priority values are more urgent.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Priority    int       `json:"priority"`
	Status      Status    `json:"status"`

	// Required lists the capabilities an agent must hold to execute this
	// task, in declaration order.
	Required []capability.Requirement `json:"required_capabilities"`

	// DependsOn holds the IDs of tasks that must complete before this task
	// becomes ready.
	DependsOn []uuid.UUID `json:"depends_on,omitempty"`

	// AssignedAgent is the agent currently holding the assignment, if any.
	AssignedAgent *uuid.UUID `json:"assigned_agent,omitempty"`

	// RetryCount is the number of retry attempts so far.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the retry budget for this task.
	MaxRetries int `json:"max_retries"`

	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// FailureContext records the most recent failure reason.
	FailureContext string `json:"failure_context,omitempty"`
}

// PrimaryCapability returns the name of the first required capability, or
// empty when the task has no requirements. It is the coarse key used to pick
// the task's queue shard.
func (t *Task) PrimaryCapability() string {
	if len(t.Required) == 0 {
		return ""
	}
	return t.Required[0].Name
}

// Result is the outcome of a task execution reported back through the
// coordinator.
type Result struct {
	TaskID      uuid.UUID     `json:"task_id"`
	AgentID     uuid.UUID     `json:"agent_id"`
	Success     bool          `json:"success"`
	Output      string        `json:"output,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completed_at"`

	// QualityScore is the optional verification score in [0, 1], set when a
	// verification collaborator is configured.
	QualityScore *float64 `json:"quality_score,omitempty"`
}

// Spec describes a task submission. Timestamps are assigned by the store at
// admission.
type Spec struct {
	// ID optionally pre-assigns the task's identity. Callers that submit
	// dependent tasks before their dependencies use pre-assigned IDs to
	// reference tasks that do not exist yet. Left as uuid.Nil, the store
	// generates one.
	ID uuid.UUID `json:"id" mapstructure:"id"`

	Description string                   `json:"description" mapstructure:"description"`
	Priority    int                      `json:"priority" mapstructure:"priority"`
	Required    []capability.Requirement `json:"required_capabilities" mapstructure:"required_capabilities"`
	DependsOn   []uuid.UUID              `json:"depends_on" mapstructure:"depends_on"`

	// MaxRetries overrides the engine-wide retry budget when positive.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}
