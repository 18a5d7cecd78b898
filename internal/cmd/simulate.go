package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/beelab/hive/internal/agent"
	"github.com/beelab/hive/internal/capability"
	"github.com/beelab/hive/internal/config"
	"github.com/beelab/hive/internal/hive"
	"github.com/beelab/hive/internal/sim"
	"github.com/beelab/hive/internal/task"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a self-contained workload simulation",
	Long: `Run the engine against a generated workload and print a summary.

Agents are created with varied capability profiles and tasks with matching
requirements; the simulated executor succeeds with probability proportional
to how well the assigned agent fits each task.

Examples:
  # Default simulation: 3 agents, 20 tasks
  hive simulate

  # Heavier run with a fixed seed for reproducible draws
  hive simulate --agents 6 --tasks 100 --seed 42`,
	RunE: runSimulate,
}

var (
	simAgents  int
	simTasks   int
	simSeed    int64
	simTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simAgents, "agents", 3, "Number of agents to create")
	simulateCmd.Flags().IntVar(&simTasks, "tasks", 20, "Number of tasks to submit")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (0 uses the clock)")
	simulateCmd.Flags().DurationVar(&simTimeout, "timeout", 2*time.Minute, "Maximum simulation run time")
}

// simCapabilities are the specialties simulated agents rotate through.
var simCapabilities = []string{"research", "data_processing", "writing", "coordination"}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simAgents < 1 {
		return fmt.Errorf("--agents must be at least 1")
	}
	cfg := config.Get()
	cfg.Engine.AssignmentIntervalMs = 10
	cfg.Engine.EvolutionIntervalSeconds = 1
	cfg.Persistence.Enabled = false

	seed := simSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	coord := hive.New(cfg,
		hive.WithLogger(logger),
		hive.WithExecutor(sim.NewExecutor(
			sim.WithSeed(seed),
			sim.WithBaseLatency(5*time.Millisecond),
			sim.WithJitter(20*time.Millisecond),
		)),
		hive.WithVerifier(sim.NewVerifier(seed)),
	)
	subscribeEventLog(coord.Bus(), logger)

	for i := 0; i < simAgents; i++ {
		specialty := simCapabilities[i%len(simCapabilities)]
		spec := agent.Spec{
			Name: fmt.Sprintf("sim-%s-%d", specialty, i+1),
			Type: agent.TypeWorker,
			Capabilities: []capability.Capability{
				{Name: specialty, Proficiency: 0.5 + rng.Float64()*0.4, LearningRate: 0.2},
				{Name: "general", Proficiency: 0.5, LearningRate: 0.1},
			},
		}
		if _, err := coord.CreateAgent(spec); err != nil {
			return fmt.Errorf("failed to create simulated agent: %w", err)
		}
	}

	// Tasks only require specialties the pool actually covers, so every
	// task has at least one qualified agent.
	covered := simCapabilities
	if simAgents < len(covered) {
		covered = covered[:simAgents]
	}
	for i := 0; i < simTasks; i++ {
		required := covered[rng.Intn(len(covered))]
		spec := task.Spec{
			Description: fmt.Sprintf("simulated %s task %d", required, i+1),
			Priority:    rng.Intn(10),
			Required: []capability.Requirement{
				{Name: required, MinProficiency: 0.3},
			},
		}
		if _, err := coord.SubmitTask(spec); err != nil {
			return fmt.Errorf("failed to submit simulated task: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), simTimeout)
	defer cancel()
	if err := coord.Start(ctx); err != nil {
		return err
	}

	start := time.Now()
	for ctx.Err() == nil && !allTerminal(coord.Status()) {
		time.Sleep(50 * time.Millisecond)
	}
	coord.Stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "simulation finished in %s (seed %d)\n\n", time.Since(start).Round(time.Millisecond), seed)
	printStatusSummary(out, coord.Status())
	return nil
}

// allTerminal reports whether every submitted task reached a terminal
// status. Suspended-only pools cannot make progress, so an exhausted pool
// also ends the run.
func allTerminal(s hive.Status) bool {
	done := s.Tasks.Completed + s.Tasks.Failed + s.Tasks.Cancelled
	if done >= s.Tasks.Total {
		return true
	}
	return s.Agents["idle"] == 0 && s.Agents["busy"] == 0 && s.Agents["learning"] == 0
}
