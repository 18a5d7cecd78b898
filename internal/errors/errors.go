// Package errors provides centralized error definitions and error handling
// utilities for the hive engine. It defines domain-specific errors, semantic
// error types, error constructors with context wrapping, and classification
// helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - AgentError: errors related to agent lifecycle and registry operations
//   - TaskError: errors related to task submission and scheduling
//   - PersistenceError: errors from the snapshot persistence collaborator
//
// Semantic errors represent common error conditions:
//   - ValidationError: malformed agent or task configuration
//   - TimeoutError: operation exceeded its configured duration
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewTaskError("submit rejected", errors.ErrCyclicDependency).WithTaskID(id)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrCyclicDependency) { ... }
//
//	var taskErr *errors.TaskError
//	if errors.As(err, &taskErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo Severity = iota
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Agent-related sentinel errors
var (
	// ErrAgentNotFound indicates that an agent could not be found in the registry.
	ErrAgentNotFound = New("agent not found")
	// ErrAgentSuspended indicates that the agent is suspended by the circuit breaker.
	ErrAgentSuspended = New("agent is suspended")
	// ErrAgentFailed indicates that the agent is in the failed state.
	ErrAgentFailed = New("agent has failed")
	// ErrAgentBusy indicates that the agent already holds an assignment.
	ErrAgentBusy = New("agent is busy")
	// ErrInvalidTransition indicates an illegal agent state transition.
	ErrInvalidTransition = New("invalid state transition")
)

// Task-related sentinel errors
var (
	// ErrTaskNotFound indicates that a task could not be found in the store.
	ErrTaskNotFound = New("task not found")
	// ErrCyclicDependency indicates a dependency cycle in a submitted task.
	ErrCyclicDependency = New("cyclic dependency detected")
	// ErrTaskNotReady indicates that a task's dependencies are not complete.
	ErrTaskNotReady = New("task is not ready")
	// ErrTaskTerminal indicates that a task is already in a terminal state.
	ErrTaskTerminal = New("task is in a terminal state")
	// ErrExecutionFailure indicates that the execution collaborator failed.
	ErrExecutionFailure = New("task execution failed")
	// ErrDoubleAssignment indicates that a task was observed with two
	// concurrent assignments. This is a fatal internal invariant violation.
	ErrDoubleAssignment = New("double assignment detected")
)

// Persistence-related sentinel errors
var (
	// ErrPersistenceUnavailable indicates that the snapshot store cannot be
	// reached. The engine degrades to in-memory operation.
	ErrPersistenceUnavailable = New("persistence unavailable")
	// ErrSnapshotNotFound indicates that no snapshot exists to restore.
	ErrSnapshotNotFound = New("snapshot not found")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// AgentError represents errors related to agent lifecycle and registry
// operations.
type AgentError struct {
	baseError
	AgentID string
}

// NewAgentError creates a new AgentError.
func NewAgentError(message string, cause error) *AgentError {
	return &AgentError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithAgentID adds an agent ID to the error context.
func (e *AgentError) WithAgentID(id string) *AgentError {
	e.AgentID = id
	return e
}

// WithSeverity sets the error severity.
func (e *AgentError) WithSeverity(s Severity) *AgentError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *AgentError) Error() string {
	prefix := "agent error"
	if e.AgentID != "" {
		prefix = fmt.Sprintf("agent error [agent=%s]", e.AgentID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// TaskError represents errors related to task submission and scheduling.
type TaskError struct {
	baseError
	TaskID string
}

// NewTaskError creates a new TaskError.
func NewTaskError(message string, cause error) *TaskError {
	return &TaskError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithTaskID adds a task ID to the error context.
func (e *TaskError) WithTaskID(id string) *TaskError {
	e.TaskID = id
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *TaskError) WithRetryable(r bool) *TaskError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *TaskError) Error() string {
	prefix := "task error"
	if e.TaskID != "" {
		prefix = fmt.Sprintf("task error [task=%s]", e.TaskID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// PersistenceError represents errors from the snapshot persistence
// collaborator. Persistence errors are warnings: the engine continues
// operating in-memory when the store is unavailable.
type PersistenceError struct {
	baseError
	Path string
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(message string, cause error) *PersistenceError {
	return &PersistenceError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityWarning,
			retryable: true,
		},
	}
}

// WithPath adds the store path to the error context.
func (e *PersistenceError) WithPath(path string) *PersistenceError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *PersistenceError) Error() string {
	prefix := "persistence error"
	if e.Path != "" {
		prefix = fmt.Sprintf("persistence error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid agent or task configuration.
// Validation errors are returned synchronously at the boundary and never
// enter the store.
type ValidationError struct {
	baseError
	Field string
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			cause:    ErrInvalidInput,
			severity: SeverityWarning,
		},
		Field: field,
	}
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// TimeoutError represents an operation that exceeded its configured duration.
type TimeoutError struct {
	baseError
	Operation string
}

// NewTimeoutError creates a new TimeoutError for the given operation.
func NewTimeoutError(operation string) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   fmt.Sprintf("%s timed out", operation),
			cause:     ErrTimeout,
			severity:  SeverityWarning,
			retryable: true,
		},
		Operation: operation,
	}
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// classifiable is implemented by errors that carry classification metadata.
type classifiable interface {
	Severity() Severity
	IsRetryable() bool
}

// IsRetryable reports whether the error is transient and the operation may
// succeed on retry. Execution failures and timeouts are retryable;
// validation and invariant errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var c classifiable
	if errors.As(err, &c) {
		return c.IsRetryable()
	}
	return errors.Is(err, ErrExecutionFailure) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrPersistenceUnavailable)
}

// IsFatal reports whether the error represents an internal invariant
// violation that should abort the affected operation.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDoubleAssignment)
}

// SeverityOf returns the severity of the error, defaulting to SeverityError
// for unclassified errors.
func SeverityOf(err error) Severity {
	if err == nil {
		return SeverityInfo
	}
	var c classifiable
	if errors.As(err, &c) {
		return c.Severity()
	}
	if errors.Is(err, ErrPersistenceUnavailable) {
		return SeverityWarning
	}
	return SeverityError
}

// Summarize joins the messages of multiple errors into a single line,
// deduplicating identical messages.
func Summarize(errs []error) string {
	seen := make(map[string]bool)
	var parts []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		msg := err.Error()
		if seen[msg] {
			continue
		}
		seen[msg] = true
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}
