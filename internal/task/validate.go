package task

import (
	"fmt"

	"github.com/beelab/hive/internal/errors"
)

// Validate checks a task spec at the submission boundary. Invalid specs are
// rejected with a ValidationError and never enter the store.
func (s *Spec) Validate() error {
	if s.Description == "" {
		return errors.NewValidationError("description", "must not be empty")
	}
	for i, req := range s.Required {
		if !req.Valid() {
			return errors.NewValidationError(
				fmt.Sprintf("required_capabilities[%d]", i),
				fmt.Sprintf("invalid requirement %q: min_proficiency must be in [0,1] and weight non-negative", req.Name),
			)
		}
	}
	seen := make(map[string]bool, len(s.Required))
	for i, req := range s.Required {
		if seen[req.Name] {
			return errors.NewValidationError(
				fmt.Sprintf("required_capabilities[%d]", i),
				fmt.Sprintf("duplicate requirement %q", req.Name),
			)
		}
		seen[req.Name] = true
	}
	if s.MaxRetries < 0 {
		return errors.NewValidationError("max_retries", "must not be negative")
	}
	return nil
}
