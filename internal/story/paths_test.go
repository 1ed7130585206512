package story

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "苏轼", SafeName("苏轼"))
	assert.Equal(t, "a_b_c", SafeName(`a/b\c`))
	assert.Equal(t, "多人物合并视图_deadbeef", SafeName("多人物合并视图_deadbeef"))
	assert.Equal(t, "map", SafeName(""))
	assert.Equal(t, "map", SafeName("   "))
	assert.Equal(t, "___", SafeName(`?<>`))
}

func TestPaths(t *testing.T) {
	t.Parallel()

	md, html := Paths("/data", "苏轼")
	assert.Equal(t, filepath.Join("/data", "story", "苏轼.md"), md)
	assert.Equal(t, filepath.Join("/data", "story_map", "苏轼.html"), html)
}

func TestWriteAndReadText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "file.md")

	require.NoError(t, WriteText(path, "内容"))
	assert.Equal(t, "内容", ReadText(path))

	assert.Empty(t, ReadText(filepath.Join(dir, "missing.md")))
}
