package errors

import (
	"fmt"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	err := NewTaskError("submit rejected", ErrCyclicDependency).WithTaskID("t-1")

	if !Is(err, ErrCyclicDependency) {
		t.Error("expected error to match ErrCyclicDependency")
	}
	if Is(err, ErrTaskNotFound) {
		t.Error("did not expect error to match ErrTaskNotFound")
	}
}

func TestErrorTypeAssertion(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewAgentError("register failed", ErrInvalidInput).WithAgentID("a-1"))

	var agentErr *AgentError
	if !As(err, &agentErr) {
		t.Fatal("expected As to find *AgentError")
	}
	if agentErr.AgentID != "a-1" {
		t.Errorf("AgentID = %q, want %q", agentErr.AgentID, "a-1")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "agent error with id",
			err:  NewAgentError("register failed", ErrInvalidInput).WithAgentID("a-1"),
			want: "agent error [agent=a-1]: register failed: invalid input",
		},
		{
			name: "task error without id",
			err:  NewTaskError("dequeue failed", nil),
			want: "task error: dequeue failed",
		},
		{
			name: "validation error",
			err:  NewValidationError("capabilities", "must not be empty"),
			want: "validation error [field=capabilities]: must not be empty",
		},
		{
			name: "persistence error with path",
			err:  NewPersistenceError("save failed", ErrPersistenceUnavailable).WithPath("/tmp/hive.db"),
			want: "persistence error [path=/tmp/hive.db]: save failed: persistence unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"execution failure", ErrExecutionFailure, true},
		{"timeout", NewTimeoutError("execute"), true},
		{"persistence", NewPersistenceError("save failed", ErrPersistenceUnavailable), true},
		{"validation", NewValidationError("priority", "out of range"), false},
		{"cyclic dependency", NewTaskError("submit rejected", ErrCyclicDependency), false},
		{"retryable task error", NewTaskError("execute failed", ErrExecutionFailure).WithRetryable(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(NewTaskError("tick aborted", ErrDoubleAssignment)) {
		t.Error("expected double assignment to be fatal")
	}
	if IsFatal(ErrExecutionFailure) {
		t.Error("did not expect execution failure to be fatal")
	}
}

func TestSeverityOf(t *testing.T) {
	if got := SeverityOf(NewValidationError("energy", "out of range")); got != SeverityWarning {
		t.Errorf("SeverityOf(validation) = %v, want %v", got, SeverityWarning)
	}
	if got := SeverityOf(ErrTaskNotFound); got != SeverityError {
		t.Errorf("SeverityOf(sentinel) = %v, want %v", got, SeverityError)
	}
	if got := SeverityOf(nil); got != SeverityInfo {
		t.Errorf("SeverityOf(nil) = %v, want %v", got, SeverityInfo)
	}
}

func TestSummarize(t *testing.T) {
	errs := []error{
		New("first"),
		nil,
		New("second"),
		New("first"),
	}
	got := Summarize(errs)
	want := "first; second"
	if got != want {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
}
