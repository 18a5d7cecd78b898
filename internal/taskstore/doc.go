// Package taskstore owns the task records of the engine: the dependency
// graph, per-status lifecycle transitions, the retry budget, and the sharded
// work-stealing queue of ready tasks.
//
// Tasks are partitioned into queue shards by their primary required
// capability. A consumer draining an empty shard steals from the back of
// another shard, so urgent work stays with its own consumers while idle
// capacity is never wasted. Only tasks in the ready state are ever queued;
// every other status change goes through an explicit transition method that
// enforces legality.
package taskstore
