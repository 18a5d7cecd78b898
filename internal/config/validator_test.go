package config

import (
	"strings"
	"testing"
)

func TestValidateCatchesBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative energy decay", func(c *Config) { c.Engine.EnergyDecayRate = -1 }, "engine.energy_decay_rate"},
		{"min energy out of range", func(c *Config) { c.Engine.MinEnergy = 150 }, "engine.min_energy"},
		{"learning rate out of range", func(c *Config) { c.Engine.LearningRateDefault = 1.5 }, "engine.learning_rate_default"},
		{"negative retries", func(c *Config) { c.Engine.RetryAttempts = -1 }, "engine.retry_attempts"},
		{"assignment interval too small", func(c *Config) { c.Engine.AssignmentIntervalMs = 1 }, "engine.assignment_interval_ms"},
		{"max below min agents", func(c *Config) { c.Scaling.MinAgents = 5; c.Scaling.MaxAgents = 2 }, "scaling.max_agents"},
		{"inverted water marks", func(c *Config) { c.Scaling.HighWater = 1; c.Scaling.LowWater = 5 }, "scaling.high_water"},
		{"zero sample count", func(c *Config) { c.Scaling.SampleCount = 0 }, "scaling.sample_count"},
		{"zero breaker threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }, "breaker.failure_threshold"},
		{"zero breaker cooldown", func(c *Config) { c.Breaker.CooldownSeconds = 0 }, "breaker.cooldown_seconds"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"zero log size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
		{"zero snapshot interval", func(c *Config) { c.Persistence.IntervalSeconds = 0 }, "persistence.interval_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("expected a validation error")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tt.field, errs)
			}
		})
	}
}

func TestValidationErrorsFormatting(t *testing.T) {
	errs := ValidationErrors{
		{Field: "scaling.max_agents", Value: 0, Message: "must be at least 1"},
		{Field: "logging.level", Value: "verbose", Message: "must be one of: debug, info, warn, error"},
	}
	msg := errs.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("message missing count: %q", msg)
	}
	if !strings.Contains(msg, "scaling.max_agents") || !strings.Contains(msg, "logging.level") {
		t.Errorf("message missing fields: %q", msg)
	}

	single := ValidationErrors{errs[0]}
	if single.Error() != errs[0].Error() {
		t.Errorf("single error should format directly, got %q", single.Error())
	}
}
