// Package scaling adapts the agent pool size to observed demand.
//
// A [Policy] turns periodic load samples into scale-up/scale-down decisions
// using a hysteresis band with an N-consecutive-sample requirement, so a
// single transient spike never changes the pool. A [Monitor] runs the
// sampling loop off the assignment path and publishes decisions on the
// event bus; applying them is the coordinator's job.
package scaling
