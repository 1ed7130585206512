package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhanz/storymap-api/internal/task"
)

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, taskID, text string) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *task.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := task.NewStore()
	scheduler := task.NewScheduler(store, noopRunner{},
		task.SchedulerConfig{WorkerCount: 1, QueueSize: 10, MaxInputLen: 200}, logger)
	scheduler.Start()
	t.Cleanup(scheduler.Stop)

	handler := NewTaskHandler(scheduler, store, logger)
	return NewRouter(handler, []string{"*"}), store
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGenerateEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("query person parameter", func(t *testing.T) {
		t.Parallel()
		router, store := newTestRouter(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate?person=苏轼", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["ok"])
		taskID, _ := body["task_id"].(string)
		require.Len(t, taskID, 32)

		snap, err := store.Snapshot(taskID)
		require.NoError(t, err)
		assert.Equal(t, "苏轼", snap.Text)
	})

	t.Run("json body with text key", func(t *testing.T) {
		t.Parallel()
		router, store := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"text":"苏轼与李白"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		taskID, _ := body["task_id"].(string)
		snap, err := store.Snapshot(taskID)
		require.NoError(t, err)
		assert.Equal(t, "苏轼与李白", snap.Text)
	})

	t.Run("json body person key wins over text", func(t *testing.T) {
		t.Parallel()
		router, store := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"person":"杜甫","text":"别的"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		snap, err := store.Snapshot(body["task_id"].(string))
		require.NoError(t, err)
		assert.Equal(t, "杜甫", snap.Text)
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "person required", body["error"])
	})

	t.Run("malformed json body", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "person required", decodeBody(t, rec)["error"])
	})

	t.Run("oversized input", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		long := strings.Repeat("轼", 201)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate?person="+long, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "输入过长（最多 200 字符）", decodeBody(t, rec)["error"])
	})

	t.Run("queue info in response", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate?person=苏轼", nil))

		body := decodeBody(t, rec)
		queue, ok := body["queue"].(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 1, queue["limit"])
	})
}

func TestTaskEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/task", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "id required", decodeBody(t, rec)["error"])
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/task?id=deadbeef", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "task not found", decodeBody(t, rec)["error"])
	})

	t.Run("snapshot includes progress", func(t *testing.T) {
		t.Parallel()
		router, store := newTestRouter(t)
		id := store.Create("苏轼")
		store.AppendProgress(id, "人物识别", "")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/task?id="+id, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, id, body["id"])
		assert.Equal(t, string(task.StatusQueued), body["status"])
		progress, ok := body["progress"].([]any)
		require.True(t, ok)
		require.Len(t, progress, 1)
		first := progress[0].(map[string]any)
		assert.Equal(t, "人物识别", first["label"])
	})
}

func TestHealthzEndpoint(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["ok"])
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeBody(t, rec)["error"])
}
