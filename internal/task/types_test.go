package task

import (
	"testing"

	"github.com/beelab/hive/internal/capability"
)

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	live := []Status{StatusPending, StatusReady, StatusAssigned, StatusRunning}
	for _, s := range live {
		if s.IsTerminal() {
			t.Errorf("did not expect %s to be terminal", s)
		}
	}
}

func TestStatusSchedulable(t *testing.T) {
	if !StatusPending.Schedulable() || !StatusReady.Schedulable() {
		t.Error("pending and ready must be schedulable")
	}
	for _, s := range []Status{StatusAssigned, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled} {
		if s.Schedulable() {
			t.Errorf("did not expect %s to be schedulable", s)
		}
	}
}

func TestPrimaryCapability(t *testing.T) {
	tk := &Task{Required: []capability.Requirement{
		{Name: "data_processing", MinProficiency: 0.7},
		{Name: "research", MinProficiency: 0.3},
	}}
	if got := tk.PrimaryCapability(); got != "data_processing" {
		t.Errorf("PrimaryCapability() = %q, want %q", got, "data_processing")
	}

	empty := &Task{}
	if got := empty.PrimaryCapability(); got != "" {
		t.Errorf("PrimaryCapability() on empty = %q, want empty", got)
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{
			name: "valid",
			spec: Spec{
				Description: "process the dataset",
				Priority:    5,
				Required:    []capability.Requirement{{Name: "data_processing", MinProficiency: 0.7, Weight: 1}},
			},
			wantErr: false,
		},
		{
			name:    "empty description",
			spec:    Spec{},
			wantErr: true,
		},
		{
			name: "requirement out of bounds",
			spec: Spec{
				Description: "x",
				Required:    []capability.Requirement{{Name: "a", MinProficiency: 1.5}},
			},
			wantErr: true,
		},
		{
			name: "duplicate requirement",
			spec: Spec{
				Description: "x",
				Required: []capability.Requirement{
					{Name: "a", MinProficiency: 0.2},
					{Name: "a", MinProficiency: 0.4},
				},
			},
			wantErr: true,
		},
		{
			name: "negative retries",
			spec: Spec{
				Description: "x",
				MaxRetries:  -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
