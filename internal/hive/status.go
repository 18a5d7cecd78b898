package hive

import (
	"github.com/beelab/hive/internal/agent"
	"github.com/beelab/hive/internal/taskstore"
)

// Status is an aggregate snapshot of engine state for operators.
type Status struct {
	// Agents counts live agents per lifecycle state.
	Agents map[string]int `json:"agents"`

	// PoolSize is the number of live (non-failed) agents.
	PoolSize int `json:"pool_size"`

	// Tasks counts tasks per status.
	Tasks taskstore.StatusCounts `json:"tasks"`

	// Queue is the work-distribution snapshot: depth per shard and
	// steal counters.
	Queue taskstore.QueueMetrics `json:"queue"`

	// OpenBreakers is the number of agents currently excluded by an open
	// circuit.
	OpenBreakers int `json:"open_breakers"`

	// TasksCompleted and TasksFailed are lifetime counters, counting only
	// terminal outcomes.
	TasksCompleted uint64 `json:"tasks_completed"`
	TasksFailed    uint64 `json:"tasks_failed"`
}

// Status returns an aggregate snapshot of the engine.
func (c *Coordinator) Status() Status {
	states := make(map[string]int)
	for state, n := range c.registry.CountByState() {
		states[state.String()] = n
	}
	return Status{
		Agents:         states,
		PoolSize:       c.registry.Count(),
		Tasks:          c.store.Counts(),
		Queue:          c.store.QueueMetrics(),
		OpenBreakers:   len(c.breakers.OpenAgents()),
		TasksCompleted: c.completed.Load(),
		TasksFailed:    c.failed.Load(),
	}
}

// AgentStates returns the lifecycle state counts keyed by typed state, for
// callers inside the module.
func (c *Coordinator) AgentStates() map[agent.State]int {
	return c.registry.CountByState()
}
