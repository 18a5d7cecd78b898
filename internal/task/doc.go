// Package task defines the task record, its status machine, and submission
// validation. Task records are owned exclusively by the taskstore; other
// components receive copies.
//
// Status transitions are monotonic except for retry: a failed execution with
// remaining retry budget returns the task to ready. A task is ready only
// when every dependency is completed, and holds at most one non-terminal
// assignment at a time.
package task
