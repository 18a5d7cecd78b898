// Package hive implements the coordination engine façade.
//
// The [Coordinator] composes the subsystem packages into one consistent
// engine: the agent registry (lifecycle, energy, trust, evolution), the
// task store (dependencies, sharded work-stealing queue, retries), the
// capability matcher, per-agent circuit breakers, the auto-scaler, and the
// snapshot persistence collaborator.
//
// # Main Types
//
//   - [Coordinator]: the engine façade and owner of all background loops
//   - [Executor]: the collaborator that runs assigned tasks
//   - [Verifier]: the optional collaborator that scores completed results
//   - [Status]: the aggregate operator-facing snapshot
//
// # Consistency Model
//
// Each subsystem guards its own state; the Coordinator serializes the one
// mutation that spans two of them, assignment, under a dedicated lock. A
// task observed with two live assignments is a fatal invariant violation
// and aborts the scheduling pass. Everything else (completion, failure,
// cancellation, scaling, suspension) is built from the subsystems' atomic
// operations and tolerates benign races by re-checking state.
//
// # Scheduling
//
// [Coordinator.AssignmentTick] drains each queue shard in priority order,
// matching every task to the best eligible agent: idle, above the energy
// floor, holding every required capability at its minimum proficiency, and
// not excluded by an open circuit. Candidates are ranked by
// capability-weighted proficiency, then trust, then least recent activity.
// A task no agent qualifies for returns to its queue; that is a normal
// outcome, not an error.
//
// # Basic Usage
//
//	coord := hive.New(config.Get(),
//	    hive.WithLogger(logger),
//	    hive.WithExecutor(sim.NewExecutor()),
//	)
//	if err := coord.Start(ctx); err != nil {
//	    return err
//	}
//	defer coord.Stop()
//
//	agentID, err := coord.CreateAgent(agent.Spec{
//	    Name: "researcher-1",
//	    Type: agent.TypeWorker,
//	    Capabilities: []capability.Capability{
//	        {Name: "research", Proficiency: 0.7},
//	    },
//	})
//
//	taskID, err := coord.SubmitTask(task.Spec{
//	    Description: "collect sources",
//	    Priority:    5,
//	    Required: []capability.Requirement{
//	        {Name: "research", MinProficiency: 0.5},
//	    },
//	})
//
// Progress is observable through [Coordinator.Bus] events and
// [Coordinator.Status].
package hive
