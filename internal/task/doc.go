// Package task implements the in-memory task registry and the background
// scheduler that executes map-generation tasks. Tasks move from queued to
// running and always end in a terminal state (completed or failed), even when
// the underlying work panics. Clients observe tasks only through snapshots.
package task
