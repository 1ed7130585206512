package task

import (
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned when a task ID has no record in the store.
var ErrTaskNotFound = errors.New("task not found")

// Store is the in-memory task registry. It is safe for concurrent use; all
// reads return snapshots so callers can never observe or cause a torn update.
type Store struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*Task)}
}

// newTaskID returns a 32-character lowercase hex ID.
func newTaskID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Create registers a new queued task for the given input text and returns its
// ID.
func (s *Store) Create(text string) string {
	now := time.Now()
	t := &Task{
		ID:        newTaskID(),
		Text:      text,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		Progress:  []ProgressEvent{},
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return t.ID
}

// Update applies fn to the task under the store lock and refreshes its
// UpdatedAt stamp. Unknown IDs are ignored, matching the behavior of progress
// reports arriving after a task record is gone.
func (s *Store) Update(id string, fn func(*Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	fn(t)
	t.UpdatedAt = time.Now()
}

// AppendProgress appends one progress event with the current wall-clock time.
func (s *Store) AppendProgress(id, label, detail string) {
	event := ProgressEvent{
		Label:  label,
		Time:   time.Now().Format("15:04:05"),
		Detail: detail,
	}
	s.Update(id, func(t *Task) {
		t.Progress = append(t.Progress, event)
	})
}

// Snapshot returns a copy of the task. The progress slice is copied so the
// caller can serialize it without racing later appends.
func (s *Store) Snapshot(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	snap := *t
	snap.Progress = make([]ProgressEvent, len(t.Progress))
	copy(snap.Progress, t.Progress)
	return snap, nil
}
