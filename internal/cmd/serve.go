package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beelab/hive/internal/config"
	"github.com/beelab/hive/internal/event"
	"github.com/beelab/hive/internal/hive"
	"github.com/beelab/hive/internal/logging"
	"github.com/beelab/hive/internal/persist"
	"github.com/beelab/hive/internal/sim"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hive engine",
	Long: `Run the hive engine in the foreground until interrupted.

The engine starts with an initial pool of worker agents, restores persisted
state when persistence is enabled, and auto-scales the pool with queue load.

Examples:
  # Run with defaults
  hive serve

  # Start with a larger initial pool
  hive serve --agents 4

  # Reload configuration when the config file changes
  hive serve --watch`,
	RunE: runServe,
}

var (
	serveAgents int
	serveWatch  bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&serveAgents, "agents", 1, "Initial number of worker agents")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload configuration on config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logger.Close() }()

	coord := hive.New(cfg,
		hive.WithLogger(logger),
		hive.WithExecutor(sim.NewExecutor()),
		hive.WithVerifier(sim.NewVerifier(0)),
		hive.WithSnapshotStore(buildSnapshotStore(cfg, logger)),
	)
	subscribeEventLog(coord.Bus(), logger)

	for i := 0; i < serveAgents; i++ {
		spec := defaultWorkerSpec(cfg, i+1)
		if _, err := coord.CreateAgent(spec); err != nil {
			return fmt.Errorf("failed to create initial agent: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWatch {
		watcher, err := config.NewWatcher(viperConfigFile(),
			func(next *config.Config) {
				// Engine tunables are bound at construction; a restart picks
				// them up. Flag the change so operators know.
				logger.WithComponent("config").Warn("configuration changed on disk, restart to apply")
			},
			func(err error) {
				logger.WithComponent("config").Error("config watch error", "error", err.Error())
			},
		)
		if err != nil {
			logger.WithComponent("config").Warn("config watching unavailable", "error", err.Error())
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	if err := coord.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "hive engine running with %d agents (ctrl-c to stop)\n", serveAgents)
	<-ctx.Done()

	coord.Stop()
	printStatusSummary(cmd.OutOrStdout(), coord.Status())
	return nil
}

// buildLogger creates the engine logger from the logging configuration.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	rotation := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
	return logging.NewLogger(cfg.Logging.File, cfg.Logging.Level, rotation)
}

// buildSnapshotStore opens the sqlite snapshot store, degrading to memory
// when it cannot be opened.
func buildSnapshotStore(cfg *config.Config, logger *logging.Logger) persist.Store {
	if !cfg.Persistence.Enabled {
		return persist.NewMemoryStore()
	}
	path := cfg.Persistence.Path
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "hive.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.WithComponent("persist").Warn("snapshot directory unavailable, continuing in memory", "error", err.Error())
		return persist.NewMemoryStore()
	}
	store, err := persist.NewSQLiteStore(path)
	if err != nil {
		logger.WithComponent("persist").Warn("snapshot store unavailable, continuing in memory", "error", err.Error())
		return persist.NewMemoryStore()
	}
	return store
}

// viperConfigFile returns the config file path in effect, falling back to
// the default location when none was loaded.
func viperConfigFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.ConfigFile()
}

// subscribeEventLog logs engine events at debug level. Used by serve and
// simulate for traceability.
func subscribeEventLog(bus *event.Bus, logger *logging.Logger) {
	bus.SubscribeAll(func(e event.Event) {
		logger.WithComponent("events").Debug(e.EventType())
	})
}
