package hive

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/beelab/hive/internal/agent"
	"github.com/beelab/hive/internal/breaker"
	"github.com/beelab/hive/internal/capability"
	"github.com/beelab/hive/internal/config"
	"github.com/beelab/hive/internal/errors"
	"github.com/beelab/hive/internal/event"
	"github.com/beelab/hive/internal/logging"
	"github.com/beelab/hive/internal/persist"
	"github.com/beelab/hive/internal/scaling"
	"github.com/beelab/hive/internal/scheduler"
	"github.com/beelab/hive/internal/task"
	"github.com/beelab/hive/internal/taskstore"
)

// Executor runs an assigned task on an agent. Execution failures are
// reported through the Result, not the error: a non-nil error means the
// execution could not run at all (cancellation, timeout).
type Executor interface {
	Execute(ctx context.Context, a *agent.Agent, t *task.Task) (*task.Result, error)
}

// Verifier optionally scores completed results in [0, 1].
type Verifier interface {
	Verify(ctx context.Context, a *agent.Agent, t *task.Task, r *task.Result) (float64, error)
}

// Coordinator is the engine façade. It owns the agent registry, the task
// store, the matcher, the per-agent circuit breakers, and the auto-scaler,
// and serializes every cross-entity mutation (assignment, completion,
// failure) so collaborators stay consistent without sharing locks.
type Coordinator struct {
	cfg      *config.Config
	log      *logging.Logger
	bus      *event.Bus
	registry *agent.Registry
	store    *taskstore.Store
	matcher  *scheduler.Matcher
	breakers *breaker.Set
	monitor  *scaling.Monitor
	snaps    persist.Store

	executor Executor
	verifier Verifier

	// assignMu serializes assignment decisions. Matching reads agent and
	// task state from two stores; without this lock two concurrent ticks
	// could pick the same agent for different tasks.
	assignMu sync.Mutex

	completed atomic.Uint64
	failed    atomic.Uint64
	agentSeq  atomic.Uint64

	scaleTemplate agent.Spec

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithExecutor sets the execution collaborator. Without one, assignment
// stops at the Assigned status and callers drive completion through
// ReportCompletion and ReportFailure.
func WithExecutor(e Executor) Option {
	return func(c *Coordinator) { c.executor = e }
}

// WithVerifier sets the optional result verification collaborator.
func WithVerifier(v Verifier) Option {
	return func(c *Coordinator) { c.verifier = v }
}

// WithSnapshotStore sets the persistence collaborator used for periodic
// checkpoints and restart recovery.
func WithSnapshotStore(s persist.Store) Option {
	return func(c *Coordinator) { c.snaps = s }
}

// WithBus sets the event bus. Defaults to a private bus.
func WithBus(b *event.Bus) Option {
	return func(c *Coordinator) { c.bus = b }
}

// WithScaleTemplate sets the agent spec the auto-scaler clones when growing
// the pool. The template's name is used as a prefix.
func WithScaleTemplate(spec agent.Spec) Option {
	return func(c *Coordinator) { c.scaleTemplate = spec }
}

// New creates a Coordinator from the given configuration.
func New(cfg *config.Config, opts ...Option) *Coordinator {
	if cfg == nil {
		cfg = config.Default()
	}

	c := &Coordinator{
		cfg: cfg,
		log: logging.NopLogger(),
		bus: event.NewBus(),
		registry: agent.NewRegistry(
			agent.WithMinEnergy(cfg.Engine.MinEnergy),
			agent.WithEnergyDecayRate(cfg.Engine.EnergyDecayRate),
			agent.WithEnergyRecoveryRate(cfg.Engine.EnergyRecoveryRate),
		),
		store:   taskstore.NewStore(taskstore.WithMaxRetries(cfg.Engine.RetryAttempts)),
		matcher: scheduler.NewMatcher(),
		breakers: breaker.NewSet(
			breaker.WithThreshold(cfg.Breaker.FailureThreshold),
			breaker.WithWindow(cfg.Breaker.Window()),
			breaker.WithCooldown(cfg.Breaker.Cooldown()),
		),
		snaps: persist.NewMemoryStore(),
		scaleTemplate: agent.Spec{
			Name: "worker",
			Type: agent.TypeWorker,
			Capabilities: []capability.Capability{
				{Name: "general", Proficiency: 0.5, LearningRate: cfg.Engine.LearningRateDefault},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breakers.Observe(c.onBreakerChange)

	policy := scaling.NewPolicy(
		scaling.WithMinAgents(cfg.Scaling.MinAgents),
		scaling.WithMaxAgents(cfg.Scaling.MaxAgents),
		scaling.WithHighWater(cfg.Scaling.HighWater),
		scaling.WithLowWater(cfg.Scaling.LowWater),
		scaling.WithSampleCount(cfg.Scaling.SampleCount),
		scaling.WithStep(cfg.Scaling.Step),
		scaling.WithCooldown(cfg.Scaling.Cooldown()),
	)
	c.monitor = scaling.NewMonitor(c.bus, policy, c.sampleLoad, cfg.Scaling.Interval())
	c.monitor.OnDecision(c.applyScaling)

	return c
}

// Bus returns the coordinator's event bus for external subscribers.
func (c *Coordinator) Bus() *event.Bus {
	return c.bus
}

// -----------------------------------------------------------------------------
// Agent Operations
// -----------------------------------------------------------------------------

// CreateAgent validates and registers a new agent, returning its ID.
func (c *Coordinator) CreateAgent(spec agent.Spec) (uuid.UUID, error) {
	c.applyCapabilityDefaults(&spec)
	id, err := c.registry.Register(spec)
	if err != nil {
		return uuid.Nil, err
	}
	c.log.WithComponent("coordinator").Info("agent created",
		"agent_id", id.String(), "name", spec.Name, "type", spec.Type.String())
	c.bus.Publish(event.NewAgentCreatedEvent(id, spec.Name, spec.Type.String()))
	return id, nil
}

// applyCapabilityDefaults fills in the configured default learning rate for
// capabilities that do not declare one.
func (c *Coordinator) applyCapabilityDefaults(spec *agent.Spec) {
	for i, cap := range spec.Capabilities {
		if cap.LearningRate == 0 {
			spec.Capabilities[i].LearningRate = c.cfg.Engine.LearningRateDefault
		}
	}
}

// RetireAgent removes an idle agent from the pool.
func (c *Coordinator) RetireAgent(id uuid.UUID, reason string) error {
	if err := c.registry.Retire(id); err != nil {
		return err
	}
	c.breakers.Remove(id)
	c.log.WithComponent("coordinator").Info("agent retired", "agent_id", id.String(), "reason", reason)
	c.bus.Publish(event.NewAgentRetiredEvent(id, reason))
	return nil
}

// GetAgent returns a copy of the agent with the given ID.
func (c *Coordinator) GetAgent(id uuid.UUID) (*agent.Agent, error) {
	return c.registry.Get(id)
}

// ListAgents returns copies of all registered agents.
func (c *Coordinator) ListAgents() []*agent.Agent {
	return c.registry.List()
}

// -----------------------------------------------------------------------------
// Task Operations
// -----------------------------------------------------------------------------

// SubmitTask validates and admits a task, returning its ID. Tasks with
// unmet dependencies stay pending; tasks whose dependency chain closes a
// cycle are rejected.
func (c *Coordinator) SubmitTask(spec task.Spec) (uuid.UUID, error) {
	id, err := c.store.Submit(spec)
	if err != nil {
		return uuid.Nil, err
	}
	c.log.WithComponent("coordinator").Info("task submitted",
		"task_id", id.String(), "priority", spec.Priority, "deps", len(spec.DependsOn))
	c.bus.Publish(event.NewTaskCreatedEvent(id, spec.Description, spec.Priority))
	return id, nil
}

// CancelTask cancels a pending, queued, or in-flight task. An agent holding
// the cancelled task returns to the idle pool.
func (c *Coordinator) CancelTask(id uuid.UUID) error {
	t, err := c.store.Get(id)
	if err != nil {
		return err
	}
	if err := c.store.Cancel(id); err != nil {
		return err
	}
	if t.AssignedAgent != nil {
		c.transitionAgent(*t.AssignedAgent, agent.StateIdle)
	}
	c.log.WithTask(id.String()).Info("task cancelled", "was", t.Status.String())
	c.bus.Publish(event.NewTaskStatusChangedEvent(id, t.Status.String(), task.StatusCancelled.String()))
	return nil
}

// GetTask returns a copy of the task with the given ID.
func (c *Coordinator) GetTask(id uuid.UUID) (*task.Task, error) {
	return c.store.Get(id)
}

// ListTasks returns copies of all tasks ordered by creation time.
func (c *Coordinator) ListTasks() []*task.Task {
	return c.store.List()
}

// -----------------------------------------------------------------------------
// Assignment
// -----------------------------------------------------------------------------

// AssignmentTick runs one scheduling pass: for each queue shard it dequeues
// ready tasks and matches them to the best eligible agent until either the
// shard drains or no agent qualifies for its head task. Unmatched tasks
// return to their queue; finding no eligible agent is a normal outcome, not
// an error. Returns the number of assignments made.
func (c *Coordinator) AssignmentTick(ctx context.Context) int {
	c.assignMu.Lock()
	defer c.assignMu.Unlock()

	assigned := 0
	for _, key := range c.store.ShardKeys() {
		for {
			if ctx.Err() != nil {
				return assigned
			}
			t := c.store.DequeueNext(key)
			if t == nil {
				break
			}
			cand := c.match(t)
			if cand == nil {
				if err := c.store.Requeue(t.ID); err != nil {
					c.log.WithTask(t.ID.String()).Warn("requeue failed", "error", err.Error())
				}
				break
			}
			if !c.assign(ctx, t, cand) {
				break
			}
			assigned++
		}
	}
	return assigned
}

// match returns the best eligible agent for the task, or nil. Eligibility
// combines registry gating (idle, energized, capable) with the circuit
// breaker: agents with an open circuit never receive work.
func (c *Coordinator) match(t *task.Task) *scheduler.Candidate {
	eligible := c.registry.ListEligible(t.Required)
	admitted := eligible[:0]
	for _, a := range eligible {
		if c.breakers.State(a.ID) == breaker.StateOpen {
			continue
		}
		admitted = append(admitted, a)
	}
	return c.matcher.Match(t, admitted)
}

// assign records the assignment on both stores and dispatches execution.
// A double-assignment error is fatal for the tick; anything else rolls the
// task back to ready.
func (c *Coordinator) assign(ctx context.Context, t *task.Task, cand *scheduler.Candidate) bool {
	if err := c.store.MarkAssigned(t.ID, cand.Agent.ID); err != nil {
		if errors.IsFatal(err) {
			c.log.WithTask(t.ID.String()).Error("assignment invariant violated", "error", err.Error())
			return false
		}
		// Lost a race with cancel; put it back if still ready.
		_ = c.store.Requeue(t.ID)
		return true
	}
	if err := c.registry.Transition(cand.Agent.ID, agent.StateBusy); err != nil {
		// The agent left the pool between matching and assignment.
		c.rollbackAssignment(t.ID)
		return true
	}

	c.log.WithAgent(cand.Agent.ID.String()).WithTask(t.ID.String()).Info("task assigned", "score", cand.Score)
	c.bus.Publish(event.NewTaskStatusChangedEvent(t.ID, task.StatusReady.String(), task.StatusAssigned.String()))
	c.bus.Publish(event.NewAgentStateChangedEvent(cand.Agent.ID, agent.StateIdle.String(), agent.StateBusy.String()))

	if c.executor != nil {
		c.wg.Add(1)
		go c.execute(ctx, t.ID, cand.Agent.ID)
	}
	return true
}

// rollbackAssignment undoes a MarkAssigned whose agent transition failed.
// The task never executed, so it returns to the queue with its retry
// budget intact.
func (c *Coordinator) rollbackAssignment(taskID uuid.UUID) {
	if err := c.store.Unassign(taskID); err != nil {
		c.log.WithTask(taskID.String()).Warn("rollback failed", "error", err.Error())
	}
}

// execute runs the task on the assigned agent and reports the outcome.
func (c *Coordinator) execute(ctx context.Context, taskID, agentID uuid.UUID) {
	defer c.wg.Done()

	if err := c.store.MarkRunning(taskID); err != nil {
		// Cancelled between assignment and start.
		c.transitionAgent(agentID, agent.StateIdle)
		return
	}
	c.bus.Publish(event.NewTaskStatusChangedEvent(taskID, task.StatusAssigned.String(), task.StatusRunning.String()))

	t, err := c.store.Get(taskID)
	if err != nil {
		return
	}
	a, err := c.registry.Get(agentID)
	if err != nil {
		return
	}

	if timeout := c.cfg.Engine.TaskTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := c.executor.Execute(ctx, a, t)
	if err != nil {
		c.reportFailure(taskID, agentID, err.Error())
		return
	}
	if !result.Success {
		c.reportFailure(taskID, agentID, result.Error)
		return
	}

	if c.verifier != nil {
		if score, verr := c.verifier.Verify(ctx, a, t, result); verr == nil {
			result.QualityScore = &score
		}
	}
	c.reportCompletion(result)
}

// -----------------------------------------------------------------------------
// Outcome Reporting
// -----------------------------------------------------------------------------

// ReportCompletion records a successful execution: the task completes,
// dependents may become ready, and the agent's proficiency, trust, and
// circuit are credited.
func (c *Coordinator) ReportCompletion(result *task.Result) error {
	return c.reportCompletionErr(result)
}

func (c *Coordinator) reportCompletion(result *task.Result) {
	if err := c.reportCompletionErr(result); err != nil {
		c.log.WithTask(result.TaskID.String()).Warn("completion report dropped", "error", err.Error())
	}
}

func (c *Coordinator) reportCompletionErr(result *task.Result) error {
	t, err := c.store.Get(result.TaskID)
	if err != nil {
		return err
	}
	unblocked, err := c.store.Complete(result.TaskID)
	if err != nil {
		return err
	}

	if err := c.registry.RecordOutcome(result.AgentID, t.PrimaryCapability(), true); err != nil {
		c.log.WithAgent(result.AgentID.String()).Warn("outcome not recorded", "error", err.Error())
	}
	c.transitionAgent(result.AgentID, agent.StateIdle)
	c.breakers.RecordSuccess(result.AgentID)
	c.completed.Add(1)

	log := c.log.WithAgent(result.AgentID.String()).WithTask(result.TaskID.String())
	log.Info("task completed", "duration_ms", result.Duration.Milliseconds(), "unblocked", len(unblocked))
	c.bus.Publish(event.NewTaskStatusChangedEvent(result.TaskID, t.Status.String(), task.StatusCompleted.String()))
	c.bus.Publish(event.NewTaskCompletedEvent(result.TaskID, result.AgentID, result.Duration))
	return nil
}

// ReportFailure records a failed execution attempt. The task returns to the
// queue while retry budget remains; the agent's proficiency and trust are
// debited and its circuit records the failure, possibly suspending it.
func (c *Coordinator) ReportFailure(taskID, agentID uuid.UUID, reason string) error {
	t, err := c.store.Get(taskID)
	if err != nil {
		return err
	}
	willRetry, err := c.store.Fail(taskID, reason)
	if err != nil {
		return err
	}

	if err := c.registry.RecordOutcome(agentID, t.PrimaryCapability(), false); err != nil {
		c.log.WithAgent(agentID.String()).Warn("outcome not recorded", "error", err.Error())
	}
	c.transitionAgent(agentID, agent.StateIdle)
	c.breakers.RecordFailure(agentID)

	log := c.log.WithAgent(agentID.String()).WithTask(taskID.String())
	if willRetry {
		log.Warn("task failed, will retry", "reason", reason, "attempt", t.RetryCount+1)
	} else {
		c.failed.Add(1)
		log.Error("task failed permanently", "reason", reason)
		c.bus.Publish(event.NewTaskStatusChangedEvent(taskID, t.Status.String(), task.StatusFailed.String()))
	}
	c.bus.Publish(event.NewTaskFailedEvent(taskID, agentID, reason, willRetry))
	return nil
}

func (c *Coordinator) reportFailure(taskID, agentID uuid.UUID, reason string) {
	if err := c.ReportFailure(taskID, agentID, reason); err != nil {
		c.log.WithTask(taskID.String()).Warn("failure report dropped", "error", err.Error())
	}
}

// transitionAgent moves an agent to the given state, publishing the change.
// Illegal transitions are logged and dropped; callers on outcome paths may
// race with the breaker suspending the agent.
func (c *Coordinator) transitionAgent(id uuid.UUID, next agent.State) {
	a, err := c.registry.Get(id)
	if err != nil {
		return
	}
	if a.State == next {
		return
	}
	if err := c.registry.Transition(id, next); err != nil {
		c.log.WithAgent(id.String()).Debug("transition skipped", "error", err.Error())
		return
	}
	c.bus.Publish(event.NewAgentStateChangedEvent(id, a.State.String(), next.String()))
}

// -----------------------------------------------------------------------------
// Breaker Integration
// -----------------------------------------------------------------------------

// onBreakerChange reacts to circuit transitions: an opening circuit
// suspends the agent, a closing one returns it to the pool.
func (c *Coordinator) onBreakerChange(change breaker.StateChange) {
	c.bus.Publish(event.NewBreakerStateChangedEvent(change.AgentID, change.From.String(), change.To.String()))
	log := c.log.WithAgent(change.AgentID.String()).WithComponent("breaker")

	switch change.To {
	case breaker.StateOpen:
		log.Warn("circuit opened, suspending agent")
		c.transitionAgent(change.AgentID, agent.StateSuspended)
	case breaker.StateClosed:
		log.Info("circuit closed")
		a, err := c.registry.Get(change.AgentID)
		if err == nil && a.State == agent.StateSuspended {
			c.transitionAgent(change.AgentID, agent.StateIdle)
		}
	}
}

// sweepSuspended returns suspended agents to the pool once their circuit
// admits a half-open trial. The Allow call consumes the trial slot, so each
// cooled-down agent is restored exactly once per probe.
func (c *Coordinator) sweepSuspended() {
	for _, a := range c.registry.List() {
		if a.State != agent.StateSuspended {
			continue
		}
		if c.breakers.Allow(a.ID) {
			c.log.WithAgent(a.ID.String()).WithComponent("breaker").Info("trial admitted, restoring agent")
			c.bus.Publish(event.NewBreakerStateChangedEvent(a.ID, breaker.StateOpen.String(), breaker.StateHalfOpen.String()))
			c.transitionAgent(a.ID, agent.StateIdle)
		}
	}
}

// -----------------------------------------------------------------------------
// Scaling Integration
// -----------------------------------------------------------------------------

// sampleLoad produces one scaling observation from current engine state.
func (c *Coordinator) sampleLoad() scaling.Sample {
	counts := c.registry.CountByState()
	return scaling.Sample{
		QueueDepth:  c.store.QueueMetrics().Depth,
		BusyAgents:  counts[agent.StateBusy],
		TotalAgents: c.registry.Count(),
	}
}

// applyScaling executes a scaling decision against the pool.
func (c *Coordinator) applyScaling(d scaling.Decision) {
	log := c.log.WithComponent("scaling")
	switch d.Action {
	case scaling.ActionScaleUp:
		for i := 0; i < d.Delta; i++ {
			spec := c.scaleTemplate
			spec.Name = fmt.Sprintf("%s-%d", c.scaleTemplate.Name, c.agentSeq.Add(1))
			caps := make([]capability.Capability, len(c.scaleTemplate.Capabilities))
			copy(caps, c.scaleTemplate.Capabilities)
			spec.Capabilities = caps
			if _, err := c.CreateAgent(spec); err != nil {
				log.Error("scale-up registration failed", "error", err.Error())
				return
			}
		}
		log.Info("scaled up", "delta", d.Delta, "reason", d.Reason)
	case scaling.ActionScaleDown:
		retired := 0
		for _, a := range c.registry.List() {
			if retired >= -d.Delta {
				break
			}
			if a.State != agent.StateIdle {
				continue
			}
			if err := c.RetireAgent(a.ID, "scaled_down"); err != nil {
				continue
			}
			retired++
		}
		log.Info("scaled down", "requested", -d.Delta, "retired", retired, "reason", d.Reason)
	}
}

// -----------------------------------------------------------------------------
// Persistence
// -----------------------------------------------------------------------------

// Checkpoint writes a snapshot of all agents and tasks. Store failures are
// warnings: the engine keeps running in memory.
func (c *Coordinator) Checkpoint() {
	snap := &persist.Snapshot{
		Agents:  c.registry.List(),
		Tasks:   c.store.List(),
		TakenAt: time.Now(),
	}
	if err := c.snaps.SaveSnapshot(snap); err != nil {
		c.log.WithComponent("persist").Warn("checkpoint failed, continuing in memory", "error", err.Error())
	}
}

// RestoreFromSnapshot loads the latest snapshot into the registry and task
// store. In-flight assignments from the previous run return to the queue.
// A missing snapshot is not an error.
func (c *Coordinator) RestoreFromSnapshot() error {
	snap, err := c.snaps.LoadSnapshot()
	if err != nil {
		if errors.Is(err, errors.ErrSnapshotNotFound) {
			return nil
		}
		c.log.WithComponent("persist").Warn("snapshot restore failed, starting fresh", "error", err.Error())
		return nil
	}
	// Assignments and breaker history do not survive a restart: live agents
	// come back idle and in-flight tasks return to the queue. Failed agents
	// stay failed.
	for _, a := range snap.Agents {
		switch a.State {
		case agent.StateBusy, agent.StateLearning, agent.StateSuspended:
			a.State = agent.StateIdle
		}
	}
	c.registry.Restore(snap.Agents)
	c.store.Restore(snap.Tasks)
	c.log.WithComponent("persist").Info("state restored",
		"agents", len(snap.Agents), "tasks", len(snap.Tasks), "taken_at", snap.TakenAt.Format(time.RFC3339))
	return nil
}
