package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreate(t *testing.T) {
	t.Parallel()

	store := NewStore()
	id := store.Create("苏轼")
	assert.Len(t, id, 32, "IDs are 32 hex characters so prefixes are usable in file names")

	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, "苏轼", snap.Text)
	assert.Equal(t, StatusQueued, snap.Status)
	assert.NotNil(t, snap.Progress)
	assert.Empty(t, snap.Progress)
	assert.False(t, snap.CreatedAt.IsZero())

	other := store.Create("李白")
	assert.NotEqual(t, id, other)
}

func TestStoreSnapshotNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore()
	_, err := store.Snapshot("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestStoreUpdate(t *testing.T) {
	t.Parallel()

	store := NewStore()
	id := store.Create("text")

	store.Update(id, func(task *Task) {
		task.Status = StatusRunning
	})
	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, snap.Status)
	assert.False(t, snap.UpdatedAt.Before(snap.CreatedAt))

	// Unknown IDs are ignored, not an error.
	assert.NotPanics(t, func() {
		store.Update("missing", func(task *Task) { task.Status = StatusFailed })
	})
}

func TestStoreAppendProgress(t *testing.T) {
	t.Parallel()

	store := NewStore()
	id := store.Create("text")

	store.AppendProgress(id, "人物识别", "")
	store.AppendProgress(id, "模型日志", "请求模型生成生平：苏轼")

	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	require.Len(t, snap.Progress, 2)
	assert.Equal(t, "人物识别", snap.Progress[0].Label)
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, snap.Progress[0].Time)
	assert.Equal(t, "请求模型生成生平：苏轼", snap.Progress[1].Detail)

	// The snapshot owns its progress slice.
	snap.Progress[0].Label = "mutated"
	again, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, "人物识别", again.Progress[0].Label)
}
