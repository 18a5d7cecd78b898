package taskstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beelab/hive/internal/errors"
	"github.com/beelab/hive/internal/task"
)

// Default store tunables.
const (
	defaultMaxRetries = 3

	// retryPriorityBoost is added to a task's priority on requeue so that
	// retried work is not starved behind a steady stream of fresh tasks.
	retryPriorityBoost = 1
)

// Option configures a Store.
type Option func(*Store)

// WithMaxRetries sets the default retry budget for tasks that do not
// specify their own.
func WithMaxRetries(n int) Option {
	return func(s *Store) { s.maxRetries = n }
}

// Store owns all task records, the dependency graph, and the sharded
// work-stealing queue of ready tasks. All methods are safe for concurrent
// use; callers receive copies of task records.
type Store struct {
	mu         sync.RWMutex
	tasks      map[uuid.UUID]*task.Task
	dependents map[uuid.UUID][]uuid.UUID // dep ID -> tasks waiting on it
	queue      *shardedQueue
	maxRetries int
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		tasks:      make(map[uuid.UUID]*task.Task),
		dependents: make(map[uuid.UUID][]uuid.UUID),
		queue:      newShardedQueue(),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and admits a task, returning its ID. Tasks may depend on
// IDs that have not been submitted yet; they stay pending until every
// dependency exists and completes. A submission whose dependency chain
// reaches back to itself is rejected with ErrCyclicDependency.
func (s *Store) Submit(spec task.Spec) (uuid.UUID, error) {
	if err := spec.Validate(); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := spec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	if _, exists := s.tasks[id]; exists {
		return uuid.Nil, errors.NewTaskError("duplicate task id", nil).WithTaskID(id.String())
	}

	deps := make([]uuid.UUID, 0, len(spec.DependsOn))
	seen := make(map[uuid.UUID]bool, len(spec.DependsOn))
	for _, dep := range spec.DependsOn {
		if dep == uuid.Nil || seen[dep] {
			continue
		}
		seen[dep] = true
		deps = append(deps, dep)
	}

	if s.wouldCycle(id, deps) {
		return uuid.Nil, errors.NewTaskError("submit rejected", errors.ErrCyclicDependency).WithTaskID(id.String())
	}

	maxRetries := s.maxRetries
	if spec.MaxRetries > 0 {
		maxRetries = spec.MaxRetries
	}

	t := &task.Task{
		ID:          id,
		Description: spec.Description,
		Priority:    spec.Priority,
		Status:      task.StatusPending,
		Required:    spec.Required,
		DependsOn:   deps,
		MaxRetries:  maxRetries,
		CreatedAt:   time.Now(),
	}
	s.tasks[id] = t
	for _, dep := range deps {
		s.dependents[dep] = append(s.dependents[dep], id)
	}

	if s.depsSatisfied(t) {
		s.markReady(t)
	}
	return id, nil
}

// wouldCycle reports whether admitting a task with the given ID and
// dependencies would close a dependency cycle. Depth-first traversal over
// the known graph; edges into not-yet-submitted tasks are re-checked when
// those tasks arrive. Callers must hold s.mu.
func (s *Store) wouldCycle(id uuid.UUID, deps []uuid.UUID) bool {
	visited := make(map[uuid.UUID]bool)
	var visit func(uuid.UUID) bool
	visit = func(cur uuid.UUID) bool {
		if cur == id {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		t, ok := s.tasks[cur]
		if !ok {
			return false
		}
		for _, dep := range t.DependsOn {
			if visit(dep) {
				return true
			}
		}
		// A dependency on this submission's waiters also closes a loop:
		// anything already waiting on cur transitively waits on id's deps.
		return false
	}
	for _, dep := range deps {
		if visit(dep) {
			return true
		}
	}
	// Reverse direction: earlier submissions may already list this ID among
	// their dependencies when IDs are pre-assigned. A waiter that any of the
	// new deps can reach closes a loop.
	for _, waiter := range s.dependents[id] {
		if s.reaches(waiter, deps, visited) {
			return true
		}
	}
	return false
}

// reaches reports whether any of targets is reachable from start following
// dependent edges. Callers must hold s.mu.
func (s *Store) reaches(start uuid.UUID, targets []uuid.UUID, visited map[uuid.UUID]bool) bool {
	for _, t := range targets {
		if start == t {
			return true
		}
	}
	if visited[start] {
		return false
	}
	visited[start] = true
	for _, waiter := range s.dependents[start] {
		if s.reaches(waiter, targets, visited) {
			return true
		}
	}
	return false
}

// depsSatisfied reports whether every dependency exists and is completed.
// Callers must hold s.mu.
func (s *Store) depsSatisfied(t *task.Task) bool {
	for _, dep := range t.DependsOn {
		d, ok := s.tasks[dep]
		if !ok || d.Status != task.StatusCompleted {
			return false
		}
	}
	return true
}

// markReady transitions a pending task to ready and enqueues it on its
// shard. Callers must hold s.mu.
func (s *Store) markReady(t *task.Task) {
	t.Status = task.StatusReady
	s.queue.push(s.shardKey(t), entry{id: t.ID, priority: t.Priority, createdAt: t.CreatedAt})
}

// shardKey returns the coarse partition key for a task: its primary
// required capability, or the default shard when it has none.
func (s *Store) shardKey(t *task.Task) string {
	if key := t.PrimaryCapability(); key != "" {
		return key
	}
	return DefaultShard
}

// Get returns a copy of the task with the given ID.
func (s *Store) Get(id uuid.UUID) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrTaskNotFound, id)
	}
	cp := *t
	return &cp, nil
}

// DequeueNext pops the highest-priority ready task for the given shard key,
// stealing from another shard when the local one is empty. Returns nil when
// no ready task is available anywhere. The returned task is still Ready;
// the caller either assigns it via MarkAssigned or returns it with Requeue.
func (s *Store) DequeueNext(partitionKey string) *task.Task {
	for {
		e, ok := s.queue.pop(partitionKey)
		if !ok {
			return nil
		}
		s.mu.RLock()
		t, exists := s.tasks[e.id]
		ready := exists && t.Status == task.StatusReady
		var cp task.Task
		if ready {
			cp = *t
		}
		s.mu.RUnlock()
		if ready {
			return &cp
		}
		// Stale entry (cancelled while queued); drop and keep popping.
	}
}

// Requeue returns a ready task to its shard after a scheduling pass found
// no eligible agent. Order is preserved because insertion is keyed on the
// same (priority, created_at) pair.
func (s *Store) Requeue(id uuid.UUID) error {
	s.mu.RLock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.RUnlock()
		return fmt.Errorf("%w: %s", errors.ErrTaskNotFound, id)
	}
	if t.Status != task.StatusReady {
		s.mu.RUnlock()
		return fmt.Errorf("%w: cannot requeue task in status %s", errors.ErrTaskNotReady, t.Status)
	}
	e := entry{id: t.ID, priority: t.Priority, createdAt: t.CreatedAt}
	key := s.shardKey(t)
	s.mu.RUnlock()

	s.queue.push(key, e)
	return nil
}

// MarkAssigned transitions a ready task to assigned and records the agent.
// A task that already holds a live assignment trips the double-assignment
// invariant, which callers treat as fatal for the operation.
func (s *Store) MarkAssigned(id, agentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrTaskNotFound, id)
	}
	if t.AssignedAgent != nil && !t.Status.IsTerminal() {
		return fmt.Errorf("%w: task %s already assigned to %s", errors.ErrDoubleAssignment, id, *t.AssignedAgent)
	}
	if t.Status != task.StatusReady {
		return fmt.Errorf("%w: cannot assign task in status %s", errors.ErrTaskNotReady, t.Status)
	}
	now := time.Now()
	t.Status = task.StatusAssigned
	t.AssignedAgent = &agentID
	t.AssignedAt = &now
	return nil
}

// Unassign reverts an assigned task to ready and re-enqueues it. Unlike
// Fail, the retry budget is untouched: the assignment never executed.
func (s *Store) Unassign(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrTaskNotFound, id)
	}
	if t.Status != task.StatusAssigned {
		return fmt.Errorf("%w: cannot unassign task in status %s", errors.ErrTaskNotReady, t.Status)
	}
	t.AssignedAgent = nil
	t.AssignedAt = nil
	s.markReady(t)
	return nil
}

// MarkRunning transitions an assigned task to running.
func (s *Store) MarkRunning(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrTaskNotFound, id)
	}
	if t.Status != task.StatusAssigned {
		return fmt.Errorf("%w: cannot run task in status %s", errors.ErrTaskNotReady, t.Status)
	}
	t.Status = task.StatusRunning
	return nil
}

// Complete marks a task completed and returns the IDs of dependents that
// became ready as a result.
func (s *Store) Complete(id uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrTaskNotFound, id)
	}
	if t.Status != task.StatusRunning && t.Status != task.StatusAssigned {
		return nil, fmt.Errorf("%w: cannot complete task in status %s", errors.ErrTaskTerminal, t.Status)
	}
	now := time.Now()
	t.Status = task.StatusCompleted
	t.CompletedAt = &now

	var unblocked []uuid.UUID
	for _, depID := range s.dependents[id] {
		dep, ok := s.tasks[depID]
		if !ok || dep.Status != task.StatusPending {
			continue
		}
		if s.depsSatisfied(dep) {
			s.markReady(dep)
			unblocked = append(unblocked, depID)
		}
	}
	return unblocked, nil
}

// Fail records a failed execution. With retry budget remaining the task
// returns to ready with a priority boost; otherwise it is permanently
// failed. Returns true when the task will be retried.
func (s *Store) Fail(id uuid.UUID, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", errors.ErrTaskNotFound, id)
	}
	if t.Status != task.StatusRunning && t.Status != task.StatusAssigned {
		return false, fmt.Errorf("%w: cannot fail task in status %s", errors.ErrTaskTerminal, t.Status)
	}

	t.RetryCount++
	t.FailureContext = reason
	t.AssignedAgent = nil
	t.AssignedAt = nil

	if t.RetryCount <= t.MaxRetries {
		t.Priority += retryPriorityBoost
		s.markReady(t)
		return true, nil
	}

	now := time.Now()
	t.Status = task.StatusFailed
	t.CompletedAt = &now
	return false, nil
}

// Cancel cancels a task. Queued tasks are removed from their shard; running
// tasks are marked cancelled and the caller notifies the owning agent.
// Terminal tasks cannot be cancelled.
func (s *Store) Cancel(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrTaskNotFound, id)
	}
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot cancel task in status %s", errors.ErrTaskTerminal, t.Status)
	}
	if t.Status == task.StatusReady {
		s.queue.remove(id)
	}
	now := time.Now()
	t.Status = task.StatusCancelled
	t.CompletedAt = &now
	t.AssignedAgent = nil
	return nil
}

// RunningSince returns tasks that have been assigned or running since
// before the cutoff. The coordinator treats these as timed out.
func (s *Store) RunningSince(cutoff time.Time) []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*task.Task
	for _, t := range s.tasks {
		if (t.Status == task.StatusRunning || t.Status == task.StatusAssigned) &&
			t.AssignedAt != nil && t.AssignedAt.Before(cutoff) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

// StatusCounts is a snapshot of task counts per status.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Ready     int `json:"ready"`
	Assigned  int `json:"assigned"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Counts returns task counts per status.
func (s *Store) Counts() StatusCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c StatusCounts
	c.Total = len(s.tasks)
	for _, t := range s.tasks {
		switch t.Status {
		case task.StatusPending:
			c.Pending++
		case task.StatusReady:
			c.Ready++
		case task.StatusAssigned:
			c.Assigned++
		case task.StatusRunning:
			c.Running++
		case task.StatusCompleted:
			c.Completed++
		case task.StatusFailed:
			c.Failed++
		case task.StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}

// QueueMetrics returns a snapshot of the work-distribution counters.
func (s *Store) QueueMetrics() QueueMetrics {
	return s.queue.metrics()
}

// ShardKeys returns the known shard keys in stable order.
func (s *Store) ShardKeys() []string {
	return s.queue.shardKeys()
}

// List returns copies of all tasks ordered by creation time.
func (s *Store) List() []*task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Restore replaces the store contents with the given tasks, rebuilding the
// dependency index and re-enqueuing ready tasks. Assigned and running tasks
// are returned to ready: their assignments did not survive the restart.
func (s *Store) Restore(tasks []*task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[uuid.UUID]*task.Task, len(tasks))
	s.dependents = make(map[uuid.UUID][]uuid.UUID)
	s.queue = newShardedQueue()
	for _, t := range tasks {
		cp := *t
		if cp.Status == task.StatusAssigned || cp.Status == task.StatusRunning {
			cp.Status = task.StatusReady
			cp.AssignedAgent = nil
			cp.AssignedAt = nil
		}
		s.tasks[cp.ID] = &cp
		for _, dep := range cp.DependsOn {
			s.dependents[dep] = append(s.dependents[dep], cp.ID)
		}
	}
	for _, t := range s.tasks {
		if t.Status == task.StatusReady {
			s.queue.push(s.shardKey(t), entry{id: t.ID, priority: t.Priority, createdAt: t.CreatedAt})
		}
	}
}
