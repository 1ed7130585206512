package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yunhanz/storymap-api/internal/api/shared"
	"github.com/yunhanz/storymap-api/internal/task"
)

// maxBodyBytes bounds /generate request bodies. Inputs are at most a few
// hundred code points, so 64 KiB is already generous.
const maxBodyBytes = 64 << 10

// TaskHandler exposes the task submission and polling endpoints.
type TaskHandler struct {
	scheduler *task.Scheduler
	store     *task.Store
	logger    *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(scheduler *task.Scheduler, store *task.Store, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{scheduler: scheduler, store: store, logger: logger}
}

// submitResponse is the success payload of POST|GET /generate.
type submitResponse struct {
	OK     bool           `json:"ok"`
	TaskID string         `json:"task_id"`
	Queue  task.QueueInfo `json:"queue"`
}

// taskResponse wraps a task snapshot for GET /task.
type taskResponse struct {
	OK bool `json:"ok"`
	task.Task
}

// Generate handles GET and POST /generate. The input text comes from the
// person or text query parameter, or the same keys in a JSON body.
func (h *TaskHandler) Generate(w http.ResponseWriter, r *http.Request) {
	text := h.extractText(r)
	if text == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "person required")
		return
	}
	if msg := h.scheduler.ValidateInput(text); msg != "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, msg)
		return
	}

	taskID, queue, err := h.scheduler.Submit(text)
	if err != nil {
		h.logger.WarnContext(r.Context(), "task submission rejected", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.InfoContext(r.Context(), "task submitted",
		"task_id", taskID,
		"queue_position", queue.Position)
	shared.RespondWithJSON(w, r, http.StatusOK, submitResponse{OK: true, TaskID: taskID, Queue: queue})
}

// Status handles GET /task?id=. It returns the full task snapshot including
// the progress log, so clients poll this endpoint until the status is
// terminal.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "id required")
		return
	}

	snapshot, err := h.store.Snapshot(id)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "task not found")
			return
		}
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to load task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskResponse{OK: true, Task: snapshot})
}

// Healthz reports liveness.
func (h *TaskHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (h *TaskHandler) extractText(r *http.Request) string {
	if text := firstQueryValue(r, "person", "text"); text != "" {
		return text
	}
	if r.Method != http.MethodPost || r.Body == nil {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload struct {
		Person string `json:"person"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if text := strings.TrimSpace(payload.Person); text != "" {
		return text
	}
	return strings.TrimSpace(payload.Text)
}

func firstQueryValue(r *http.Request, keys ...string) string {
	query := r.URL.Query()
	for _, key := range keys {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			return v
		}
	}
	return ""
}
