// Package config defines the engine configuration surface, loaded through
// viper with defaults, validation, and live file watching.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete hive configuration.
type Config struct {
	Engine      EngineConfig      `mapstructure:"engine"`
	Scaling     ScalingConfig     `mapstructure:"scaling"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
}

// EngineConfig controls agent and task behavior.
type EngineConfig struct {
	// EnergyDecayRate is the energy drained from a busy agent per evolution
	// cycle.
	EnergyDecayRate float64 `mapstructure:"energy_decay_rate"`
	// EnergyRecoveryRate is the energy restored to an idle agent per
	// evolution cycle.
	EnergyRecoveryRate float64 `mapstructure:"energy_recovery_rate"`
	// MinEnergy is the energy floor below which an agent is not offered
	// assignments.
	MinEnergy float64 `mapstructure:"min_energy"`
	// LearningRateDefault is applied to registered capabilities that do not
	// declare their own learning rate.
	LearningRateDefault float64 `mapstructure:"learning_rate_default"`
	// TaskTimeoutSeconds is the maximum run time before a task is treated as
	// failed (0 = disabled).
	TaskTimeoutSeconds int `mapstructure:"task_timeout_seconds"`
	// RetryAttempts is the default retry budget per task.
	RetryAttempts int `mapstructure:"retry_attempts"`
	// AssignmentIntervalMs is how often the assignment loop runs.
	AssignmentIntervalMs int `mapstructure:"assignment_interval_ms"`
	// EvolutionIntervalSeconds is how often the agent evolution cycle runs.
	EvolutionIntervalSeconds int `mapstructure:"evolution_interval_seconds"`
}

// ScalingConfig controls the auto-scaler.
type ScalingConfig struct {
	// MinAgents is the minimum pool size the scaler maintains.
	MinAgents int `mapstructure:"min_agents"`
	// MaxAgents is the maximum pool size the scaler allows.
	MaxAgents int `mapstructure:"max_agents"`
	// HighWater is the queue depth above which sustained load scales up.
	HighWater int `mapstructure:"high_water"`
	// LowWater is the queue depth below which sustained idleness scales down.
	LowWater int `mapstructure:"low_water"`
	// SampleCount is how many consecutive samples beyond a water mark are
	// required before the pool changes.
	SampleCount int `mapstructure:"sample_count"`
	// Step is how many agents one scaling decision adds or removes.
	Step int `mapstructure:"step"`
	// IntervalSeconds is how often the scaler samples engine load.
	IntervalSeconds int `mapstructure:"interval_seconds"`
	// CooldownSeconds is the minimum time between scaling decisions.
	CooldownSeconds int `mapstructure:"cooldown_seconds"`
}

// BreakerConfig controls the per-agent circuit breakers.
type BreakerConfig struct {
	// FailureThreshold is the windowed failure count that opens a circuit.
	FailureThreshold int `mapstructure:"failure_threshold"`
	// WindowSeconds is the rolling window over which failures are counted.
	WindowSeconds int `mapstructure:"window_seconds"`
	// CooldownSeconds is the base suspension before a half-open trial.
	// Doubles on each failed trial.
	CooldownSeconds int `mapstructure:"cooldown_seconds"`
}

// LoggingConfig controls structured logging behavior.
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// File is the log file path. Empty logs to stderr only.
	File string `mapstructure:"file"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// PersistenceConfig controls state snapshots.
type PersistenceConfig struct {
	// Enabled controls whether snapshots are taken. When the snapshot store
	// is unavailable the engine degrades to in-memory with a warning.
	Enabled bool `mapstructure:"enabled"`
	// Path is the sqlite database file for snapshots.
	Path string `mapstructure:"path"`
	// IntervalSeconds is how often a snapshot checkpoint is written.
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// TaskTimeout returns the task timeout as a time.Duration (0 means disabled).
func (c *EngineConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}

// AssignmentInterval returns the assignment loop interval as a time.Duration.
func (c *EngineConfig) AssignmentInterval() time.Duration {
	return time.Duration(c.AssignmentIntervalMs) * time.Millisecond
}

// EvolutionInterval returns the evolution cycle interval as a time.Duration.
func (c *EngineConfig) EvolutionInterval() time.Duration {
	return time.Duration(c.EvolutionIntervalSeconds) * time.Second
}

// Interval returns the scaler sampling interval as a time.Duration.
func (c *ScalingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Cooldown returns the scaler decision cooldown as a time.Duration.
func (c *ScalingConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// Window returns the breaker failure window as a time.Duration.
func (c *BreakerConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Cooldown returns the breaker base cooldown as a time.Duration.
func (c *BreakerConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// SnapshotInterval returns the checkpoint interval as a time.Duration.
func (c *PersistenceConfig) SnapshotInterval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			EnergyDecayRate:          2.0,
			EnergyRecoveryRate:       5.0,
			MinEnergy:                20.0,
			LearningRateDefault:      0.1,
			TaskTimeoutSeconds:       300, // 5 minutes
			RetryAttempts:            3,
			AssignmentIntervalMs:     100,
			EvolutionIntervalSeconds: 30,
		},
		Scaling: ScalingConfig{
			MinAgents:       1,
			MaxAgents:       8,
			HighWater:       10,
			LowWater:        2,
			SampleCount:     3,
			Step:            1,
			IntervalSeconds: 10,
			CooldownSeconds: 30,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			WindowSeconds:    300, // 5 minutes
			CooldownSeconds:  30,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			File:       "", // Empty means stderr only
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Persistence: PersistenceConfig{
			Enabled:         false, // In-memory only by default
			Path:            "",    // Empty means hive.db in the data dir
			IntervalSeconds: 60,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	// Engine defaults
	viper.SetDefault("engine.energy_decay_rate", defaults.Engine.EnergyDecayRate)
	viper.SetDefault("engine.energy_recovery_rate", defaults.Engine.EnergyRecoveryRate)
	viper.SetDefault("engine.min_energy", defaults.Engine.MinEnergy)
	viper.SetDefault("engine.learning_rate_default", defaults.Engine.LearningRateDefault)
	viper.SetDefault("engine.task_timeout_seconds", defaults.Engine.TaskTimeoutSeconds)
	viper.SetDefault("engine.retry_attempts", defaults.Engine.RetryAttempts)
	viper.SetDefault("engine.assignment_interval_ms", defaults.Engine.AssignmentIntervalMs)
	viper.SetDefault("engine.evolution_interval_seconds", defaults.Engine.EvolutionIntervalSeconds)

	// Scaling defaults
	viper.SetDefault("scaling.min_agents", defaults.Scaling.MinAgents)
	viper.SetDefault("scaling.max_agents", defaults.Scaling.MaxAgents)
	viper.SetDefault("scaling.high_water", defaults.Scaling.HighWater)
	viper.SetDefault("scaling.low_water", defaults.Scaling.LowWater)
	viper.SetDefault("scaling.sample_count", defaults.Scaling.SampleCount)
	viper.SetDefault("scaling.step", defaults.Scaling.Step)
	viper.SetDefault("scaling.interval_seconds", defaults.Scaling.IntervalSeconds)
	viper.SetDefault("scaling.cooldown_seconds", defaults.Scaling.CooldownSeconds)

	// Breaker defaults
	viper.SetDefault("breaker.failure_threshold", defaults.Breaker.FailureThreshold)
	viper.SetDefault("breaker.window_seconds", defaults.Breaker.WindowSeconds)
	viper.SetDefault("breaker.cooldown_seconds", defaults.Breaker.CooldownSeconds)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Persistence defaults
	viper.SetDefault("persistence.enabled", defaults.Persistence.Enabled)
	viper.SetDefault("persistence.path", defaults.Persistence.Path)
	viper.SetDefault("persistence.interval_seconds", defaults.Persistence.IntervalSeconds)
}

// Load reads the configuration from viper into a Config struct and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function).
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hive")
	}
	// Fall back to ~/.config/hive
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hive"
	}
	return filepath.Join(home, ".config", "hive")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
