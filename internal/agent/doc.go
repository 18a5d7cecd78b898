// Package agent owns agent records, their lifecycle state machine, and
// capability evolution after task outcomes.
//
// The core type is [Registry], which validates registrations, enforces
// legal state transitions, records task outcomes (adjusting proficiency and
// the exponentially smoothed trust score), and runs the periodic evolution
// cycle that decays unused capabilities, replenishes idle agents' energy,
// and grants learned capabilities past experience thresholds.
//
// The Registry hands out copies; cross-entity transitions (assignment) are
// serialized by the hive coordinator.
package agent
