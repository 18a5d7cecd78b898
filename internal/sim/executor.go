// Package sim provides a simulated task execution collaborator. It is the
// default executor for local runs and tests: outcomes are random draws
// weighted by how well the assigned agent's capabilities fit the task, with
// a configurable latency and jitter to exercise timeout and concurrency
// paths.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/beelab/hive/internal/agent"
	"github.com/beelab/hive/internal/capability"
	"github.com/beelab/hive/internal/errors"
	"github.com/beelab/hive/internal/scheduler"
	"github.com/beelab/hive/internal/task"
)

// Success probability is an affine map of fitness: a perfectly matched
// agent succeeds 100% of the time, a barely qualified one 20%.
const (
	successBase  = 0.2
	successSlope = 0.8
)

// Default execution timing.
const (
	DefaultBaseLatency = 50 * time.Millisecond
	DefaultJitter      = 100 * time.Millisecond
)

// Executor simulates task execution. It is safe for concurrent use.
type Executor struct {
	matcher *scheduler.Matcher

	baseLatency time.Duration
	jitter      time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Executor.
type Option func(*Executor)

// WithBaseLatency sets the fixed portion of the simulated execution time.
func WithBaseLatency(d time.Duration) Option {
	return func(e *Executor) { e.baseLatency = d }
}

// WithJitter sets the upper bound of the random portion of the simulated
// execution time.
func WithJitter(d time.Duration) Option {
	return func(e *Executor) { e.jitter = d }
}

// WithSeed makes the executor's random draws deterministic.
func WithSeed(seed int64) Option {
	return func(e *Executor) { e.rng = rand.New(rand.NewSource(seed)) }
}

// NewExecutor creates a simulated executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		matcher:     scheduler.NewMatcher(),
		baseLatency: DefaultBaseLatency,
		jitter:      DefaultJitter,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute simulates running t on a. It blocks for the simulated latency,
// honoring ctx cancellation, then draws the outcome. The returned Result is
// always non-nil when err is nil; failed draws report success=false with an
// error message rather than returning an error, since a failed execution is
// a normal outcome.
func (e *Executor) Execute(ctx context.Context, a *agent.Agent, t *task.Task) (*task.Result, error) {
	start := time.Now()
	latency := e.baseLatency + e.randomJitter()

	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, errors.NewTimeoutError(fmt.Sprintf("execution of task %s", t.ID))
	case <-timer.C:
	}

	p := e.successProbability(a, t.Required)
	success := e.draw() < p

	result := &task.Result{
		TaskID:      t.ID,
		AgentID:     a.ID,
		Success:     success,
		Duration:    time.Since(start),
		CompletedAt: time.Now(),
	}
	if success {
		result.Output = fmt.Sprintf("simulated completion of %q by %s", t.Description, a.Name)
	} else {
		result.Error = fmt.Sprintf("simulated failure of %q (success probability %.2f)", t.Description, p)
	}
	return result, nil
}

// successProbability maps the agent's fitness for the requirements into
// [successBase, 1]. Fitness below zero should not occur for an assigned
// agent; it is clamped so a mismatched assignment degrades instead of
// panicking.
func (e *Executor) successProbability(a *agent.Agent, required []capability.Requirement) float64 {
	fitness := e.matcher.Fitness(a, required)
	if fitness < 0 {
		fitness = 0
	}
	return successBase + successSlope*fitness
}

func (e *Executor) randomJitter() time.Duration {
	if e.jitter <= 0 {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Duration(e.rng.Int63n(int64(e.jitter)))
}

func (e *Executor) draw() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// Verifier simulates result verification, scoring successful results by the
// agent's fitness with a small random perturbation.
type Verifier struct {
	matcher *scheduler.Matcher

	mu  sync.Mutex
	rng *rand.Rand
}

// NewVerifier creates a simulated verifier. Seed zero uses the clock.
func NewVerifier(seed int64) *Verifier {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Verifier{
		matcher: scheduler.NewMatcher(),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Verify returns a quality score in [0, 1] for the result. Failed results
// score zero.
func (v *Verifier) Verify(ctx context.Context, a *agent.Agent, t *task.Task, r *task.Result) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !r.Success {
		return 0, nil
	}
	fitness := v.matcher.Fitness(a, t.Required)
	if fitness < 0 {
		fitness = 0
	}
	v.mu.Lock()
	noise := (v.rng.Float64() - 0.5) * 0.1
	v.mu.Unlock()
	return capability.Clamp(fitness + noise), nil
}
