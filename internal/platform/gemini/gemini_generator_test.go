package gemini

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhanz/storymap-api/internal/config"
	"github.com/yunhanz/storymap-api/internal/generation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePromptDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		biographySystemFile: "系统提示",
		biographyUserFile:   "请整理历史人物「{{.Person}}」的生平信息。",
		extractFiguresFile:  "识别人物：{{.Text}}",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func validConfig(promptDir string) config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:      "test-key",
		ModelName:         "gemini-2.0-flash",
		PromptDir:         promptDir,
		MaxRetries:        3,
		RetryDelaySeconds: 2,
		TimeoutSeconds:    60,
	}
}

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()
		g, err := NewGenerator(context.Background(), testLogger(), validConfig(writePromptDir(t)))
		require.NoError(t, err)
		require.NotNil(t, g)
		assert.Equal(t, "gemini-2.0-flash", g.model)
		assert.Equal(t, "系统提示", g.biographySystem)
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()
		_, err := NewGenerator(context.Background(), nil, validConfig(writePromptDir(t)))
		assert.Error(t, err)
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig(writePromptDir(t))
		cfg.GeminiAPIKey = ""
		_, err := NewGenerator(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing model name", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig(writePromptDir(t))
		cfg.ModelName = ""
		_, err := NewGenerator(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing prompt dir", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig(writePromptDir(t))
		cfg.PromptDir = ""
		_, err := NewGenerator(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("prompt files absent", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig(t.TempDir())
		_, err := NewGenerator(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("broken template", func(t *testing.T) {
		t.Parallel()
		dir := writePromptDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, biographyUserFile), []byte("{{.Person"), 0o644))
		_, err := NewGenerator(context.Background(), testLogger(), validConfig(dir))
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestShippedPromptTemplatesLoad(t *testing.T) {
	t.Parallel()

	// The repository's own prompt directory must satisfy the loader.
	g, err := NewGenerator(context.Background(), testLogger(), validConfig(filepath.Join("..", "..", "..", "prompts")))
	require.NoError(t, err)
	assert.Contains(t, g.biographySystem, "## 年份")
}
