package taskstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultShard is the partition key for tasks with no required capabilities.
const DefaultShard = "general"

// entry is a queued reference to a ready task. Ordering within a shard is
// (priority desc, createdAt asc).
type entry struct {
	id        uuid.UUID
	priority  int
	createdAt time.Time
}

// shard is one independently ordered partition of the ready queue.
type shard struct {
	entries []entry
	steals  uint64 // tasks stolen FROM this shard
}

// insert places e in order. Binary search keeps insertion cheap for the
// common append-at-end case.
func (s *shard) insert(e entry) {
	i := sort.Search(len(s.entries), func(i int) bool {
		if s.entries[i].priority != e.priority {
			return s.entries[i].priority < e.priority
		}
		return s.entries[i].createdAt.After(e.createdAt)
	})
	s.entries = append(s.entries, entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

// popFront removes and returns the highest-priority entry.
func (s *shard) popFront() (entry, bool) {
	if len(s.entries) == 0 {
		return entry{}, false
	}
	e := s.entries[0]
	s.entries = s.entries[1:]
	return e, true
}

// popBack removes and returns the lowest-priority entry. Used by stealing
// so the victim keeps its most urgent work.
func (s *shard) popBack() (entry, bool) {
	if len(s.entries) == 0 {
		return entry{}, false
	}
	e := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e, true
}

// remove deletes the entry with the given id, reporting whether it was found.
func (s *shard) remove(id uuid.UUID) bool {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// QueueMetrics is a snapshot of work-distribution counters.
type QueueMetrics struct {
	Depth          int            `json:"depth"`
	DepthByShard   map[string]int `json:"depth_by_shard"`
	StealAttempts  uint64         `json:"steal_attempts"`
	StealSuccesses uint64         `json:"steal_successes"`
}

// shardedQueue distributes ready tasks across per-capability shards with
// work stealing. All operations hold the queue mutex for a single shard
// operation at most; nothing blocks on task state.
type shardedQueue struct {
	mu        sync.Mutex
	shards    map[string]*shard
	keys      []string // stable shard iteration order
	rotateIdx int

	stealAttempts  uint64
	stealSuccesses uint64
}

func newShardedQueue() *shardedQueue {
	return &shardedQueue{shards: make(map[string]*shard)}
}

// push enqueues a ready task reference on the shard for key.
func (q *shardedQueue) push(key string, e entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shardFor(key).insert(e)
}

// shardFor returns the shard for key, creating it on first use.
// Callers must hold q.mu.
func (q *shardedQueue) shardFor(key string) *shard {
	s, ok := q.shards[key]
	if !ok {
		s = &shard{}
		q.shards[key] = s
		q.keys = append(q.keys, key)
		sort.Strings(q.keys)
	}
	return s
}

// pop removes the next task reference for the given shard key. When the
// local shard is empty it attempts to steal from the back of another shard,
// chosen by rotation, moving the stolen entry into the local shard's order
// before dequeuing. Only shards holding more than one entry are stolen
// from, so a victim always keeps work for its own consumers.
func (q *shardedQueue) pop(key string) (entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	local := q.shardFor(key)
	if e, ok := local.popFront(); ok {
		return e, true
	}

	// Local shard empty: rotate through victims.
	n := len(q.keys)
	for i := 0; i < n; i++ {
		victimKey := q.keys[(q.rotateIdx+i)%n]
		if victimKey == key {
			continue
		}
		victim := q.shards[victimKey]
		if len(victim.entries) <= 1 {
			continue
		}
		q.stealAttempts++
		e, ok := victim.popBack()
		if !ok {
			continue
		}
		victim.steals++
		q.stealSuccesses++
		q.rotateIdx = (q.rotateIdx + i + 1) % n
		// Route the stolen entry through the local shard so local
		// ordering invariants hold even for stolen work.
		local.insert(e)
		stolen, _ := local.popFront()
		return stolen, true
	}
	return entry{}, false
}

// remove deletes a task reference from whichever shard holds it.
func (q *shardedQueue) remove(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range q.shards {
		if s.remove(id) {
			return true
		}
	}
	return false
}

// depth returns the total number of queued entries.
func (q *shardedQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for _, s := range q.shards {
		total += len(s.entries)
	}
	return total
}

// shardKeys returns the known shard keys in stable order.
func (q *shardedQueue) shardKeys() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.keys))
	copy(out, q.keys)
	return out
}

// metrics returns a snapshot of queue counters.
func (q *shardedQueue) metrics() QueueMetrics {
	q.mu.Lock()
	defer q.mu.Unlock()
	m := QueueMetrics{
		DepthByShard:   make(map[string]int, len(q.shards)),
		StealAttempts:  q.stealAttempts,
		StealSuccesses: q.stealSuccesses,
	}
	for key, s := range q.shards {
		m.DepthByShard[key] = len(s.entries)
		m.Depth += len(s.entries)
	}
	return m
}
