// Package breaker isolates repeatedly failing agents behind per-agent
// circuit breakers.
//
// Each circuit counts failures over a rolling window. Crossing the threshold
// opens the circuit and the agent stops receiving work. After a cooldown the
// circuit goes half-open and admits a single trial task: success closes the
// circuit, failure re-opens it with a doubled cooldown.
package breaker
