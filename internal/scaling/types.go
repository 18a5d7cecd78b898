package scaling

// Action represents a scaling decision action.
type Action string

const (
	// ActionScaleUp indicates more agents should be added.
	ActionScaleUp Action = "scale_up"

	// ActionScaleDown indicates agents should be removed.
	ActionScaleDown Action = "scale_down"

	// ActionNone indicates no scaling change is needed.
	ActionNone Action = "none"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Sample is one observation of engine load, taken off the assignment path
// from best-effort counters.
type Sample struct {
	// QueueDepth is the number of ready tasks across all shards.
	QueueDepth int

	// BusyAgents is the number of agents currently executing.
	BusyAgents int

	// TotalAgents is the pool size excluding failed agents.
	TotalAgents int
}

// Decision is the result of evaluating the scaling policy against a sample.
type Decision struct {
	// Action is the recommended scaling action.
	Action Action

	// Delta is the number of agents to add (positive) or remove (negative).
	// Zero when Action is ActionNone.
	Delta int

	// Reason is a human-readable explanation of the decision.
	Reason string
}
