package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "scaling.max_agents")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateEngine()...)
	errors = append(errors, c.validateScaling()...)
	errors = append(errors, c.validateBreaker()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validatePersistence()...)

	return errors
}

// validateEngine validates the EngineConfig
func (c *Config) validateEngine() []ValidationError {
	var errors []ValidationError

	if c.Engine.EnergyDecayRate < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.energy_decay_rate",
			Value:   c.Engine.EnergyDecayRate,
			Message: "must be non-negative",
		})
	}
	if c.Engine.EnergyRecoveryRate < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.energy_recovery_rate",
			Value:   c.Engine.EnergyRecoveryRate,
			Message: "must be non-negative",
		})
	}
	if c.Engine.MinEnergy < 0 || c.Engine.MinEnergy > 100 {
		errors = append(errors, ValidationError{
			Field:   "engine.min_energy",
			Value:   c.Engine.MinEnergy,
			Message: "must be within [0, 100]",
		})
	}
	if c.Engine.LearningRateDefault < 0 || c.Engine.LearningRateDefault > 1 {
		errors = append(errors, ValidationError{
			Field:   "engine.learning_rate_default",
			Value:   c.Engine.LearningRateDefault,
			Message: "must be within [0, 1]",
		})
	}
	if c.Engine.TaskTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.task_timeout_seconds",
			Value:   c.Engine.TaskTimeoutSeconds,
			Message: "must be non-negative (0 disables timeout)",
		})
	}
	if c.Engine.RetryAttempts < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.retry_attempts",
			Value:   c.Engine.RetryAttempts,
			Message: "must be non-negative",
		})
	}

	const minAssignmentIntervalMs = 10
	if c.Engine.AssignmentIntervalMs < minAssignmentIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "engine.assignment_interval_ms",
			Value:   c.Engine.AssignmentIntervalMs,
			Message: fmt.Sprintf("must be at least %dms", minAssignmentIntervalMs),
		})
	}
	if c.Engine.EvolutionIntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.evolution_interval_seconds",
			Value:   c.Engine.EvolutionIntervalSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

// validateScaling validates the ScalingConfig
func (c *Config) validateScaling() []ValidationError {
	var errors []ValidationError

	if c.Scaling.MinAgents < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.min_agents",
			Value:   c.Scaling.MinAgents,
			Message: "must be non-negative",
		})
	}
	if c.Scaling.MaxAgents < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.max_agents",
			Value:   c.Scaling.MaxAgents,
			Message: "must be at least 1",
		})
	}
	if c.Scaling.MaxAgents < c.Scaling.MinAgents {
		errors = append(errors, ValidationError{
			Field:   "scaling.max_agents",
			Value:   c.Scaling.MaxAgents,
			Message: fmt.Sprintf("must be at least min_agents (%d)", c.Scaling.MinAgents),
		})
	}
	if c.Scaling.HighWater <= c.Scaling.LowWater {
		errors = append(errors, ValidationError{
			Field:   "scaling.high_water",
			Value:   c.Scaling.HighWater,
			Message: fmt.Sprintf("must exceed low_water (%d) to form a hysteresis band", c.Scaling.LowWater),
		})
	}
	if c.Scaling.LowWater < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.low_water",
			Value:   c.Scaling.LowWater,
			Message: "must be non-negative",
		})
	}
	if c.Scaling.SampleCount < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.sample_count",
			Value:   c.Scaling.SampleCount,
			Message: "must be at least 1",
		})
	}
	if c.Scaling.Step < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.step",
			Value:   c.Scaling.Step,
			Message: "must be at least 1",
		})
	}
	if c.Scaling.IntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.interval_seconds",
			Value:   c.Scaling.IntervalSeconds,
			Message: "must be positive",
		})
	}
	if c.Scaling.CooldownSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.cooldown_seconds",
			Value:   c.Scaling.CooldownSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateBreaker validates the BreakerConfig
func (c *Config) validateBreaker() []ValidationError {
	var errors []ValidationError

	if c.Breaker.FailureThreshold < 1 {
		errors = append(errors, ValidationError{
			Field:   "breaker.failure_threshold",
			Value:   c.Breaker.FailureThreshold,
			Message: "must be at least 1",
		})
	}
	if c.Breaker.WindowSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "breaker.window_seconds",
			Value:   c.Breaker.WindowSeconds,
			Message: "must be positive",
		})
	}
	if c.Breaker.CooldownSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "breaker.cooldown_seconds",
			Value:   c.Breaker.CooldownSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validatePersistence validates the PersistenceConfig
func (c *Config) validatePersistence() []ValidationError {
	var errors []ValidationError

	if c.Persistence.Path != "" && strings.ContainsRune(c.Persistence.Path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "persistence.path",
			Value:   c.Persistence.Path,
			Message: "path contains invalid null character",
		})
	}
	if c.Persistence.IntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "persistence.interval_seconds",
			Value:   c.Persistence.IntervalSeconds,
			Message: "must be positive",
		})
	}

	return errors
}
