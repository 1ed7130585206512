package task

import (
	"time"

	"github.com/yunhanz/storymap-api/internal/domain"
)

// Status represents the lifecycle state of a task.
type Status string

// Task status values
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ProgressEvent is one append-only progress log entry. Time is a wall-clock
// HH:MM:SS stamp intended for direct display.
type ProgressEvent struct {
	Label  string `json:"label"`
	Time   string `json:"time"`
	Detail string `json:"detail,omitempty"`
}

// QueueInfo describes a task's position in the scheduler at submission and,
// once dequeued, how long it waited.
type QueueInfo struct {
	Position      int    `json:"position"`
	Limit         int    `json:"limit"`
	Active        int    `json:"active,omitempty"`
	ActiveAtStart int    `json:"active_at_start,omitempty"`
	Wait          string `json:"wait,omitempty"`
}

// Task is the mutable record of one map-generation request. All mutation goes
// through the Store; handlers only ever see copies.
type Task struct {
	ID        string              `json:"id"`
	Text      string              `json:"text"`
	Status    Status              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Progress  []ProgressEvent     `json:"progress"`
	Result    *domain.TaskSummary `json:"result"`
	Error     string              `json:"error"`
	Queue     QueueInfo           `json:"queue"`
}
