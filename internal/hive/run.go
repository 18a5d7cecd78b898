package hive

import (
	"context"
	"time"

	"github.com/beelab/hive/internal/event"
)

// sweepInterval drives the breaker restore and timeout sweeps. Fine-grained
// relative to breaker cooldowns and task timeouts.
const sweepInterval = time.Second

// Start restores persisted state and launches the background loops:
// assignment, agent evolution, auto-scaling, breaker restore, task timeout,
// periodic checkpoints, and metrics publication. It returns immediately;
// Stop shuts the loops down.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = true
	c.mu.Unlock()

	if err := c.RestoreFromSnapshot(); err != nil {
		return err
	}

	c.runLoop(ctx, c.cfg.Engine.AssignmentInterval(), func() {
		c.AssignmentTick(ctx)
	})
	c.runLoop(ctx, c.cfg.Engine.EvolutionInterval(), c.evolveTick)
	c.runLoop(ctx, sweepInterval, c.sweepSuspended)
	c.runLoop(ctx, c.cfg.Scaling.Interval(), c.publishMetrics)

	if c.cfg.Engine.TaskTimeout() > 0 {
		c.runLoop(ctx, sweepInterval, c.timeoutTick)
	}
	if c.cfg.Persistence.Enabled {
		c.runLoop(ctx, c.cfg.Persistence.SnapshotInterval(), c.Checkpoint)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.monitor.Start(ctx)
	}()

	c.log.WithComponent("coordinator").Info("engine started",
		"agents", c.registry.Count(), "tasks", c.store.Counts().Total)
	return nil
}

// Stop cancels the background loops, waits for in-flight executions, and
// writes a final checkpoint when persistence is enabled.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	started := c.started
	c.started = false
	c.mu.Unlock()
	if !started {
		return
	}

	c.monitor.Stop()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	if c.cfg.Persistence.Enabled {
		c.Checkpoint()
	}
	c.log.WithComponent("coordinator").Info("engine stopped")
}

// runLoop starts a ticker-driven goroutine tracked by the coordinator's
// wait group.
func (c *Coordinator) runLoop(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// evolveTick runs one agent evolution cycle and logs acquisitions.
func (c *Coordinator) evolveTick() {
	result := c.registry.EvolveCycle()
	for id, names := range result.Learned {
		c.log.WithAgent(id.String()).WithComponent("evolution").Info("capabilities acquired", "names", names)
	}
}

// timeoutTick fails tasks whose execution outlived the configured timeout.
// The execution goroutine also observes its context deadline; whichever
// path reports first wins, the other is dropped as a stale report.
func (c *Coordinator) timeoutTick() {
	cutoff := time.Now().Add(-c.cfg.Engine.TaskTimeout())
	for _, t := range c.store.RunningSince(cutoff) {
		if t.AssignedAgent == nil {
			continue
		}
		c.log.WithTask(t.ID.String()).Warn("task timed out")
		c.reportFailure(t.ID, *t.AssignedAgent, "execution timed out")
	}
}

// publishMetrics emits a periodic counter snapshot on the event bus.
func (c *Coordinator) publishMetrics() {
	qm := c.store.QueueMetrics()
	c.bus.Publish(event.NewMetricsUpdateEvent(
		c.registry.Count(),
		qm.Depth,
		int(c.completed.Load()),
		int(c.failed.Load()),
		qm.StealSuccesses,
	))
}
