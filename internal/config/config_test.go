package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-fabric/internal/validate"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDB, EnvIndex, EnvEmbedProvider, EnvEmbedModel, EnvEmbedURL,
		EnvOpenAIKey, EnvOllamaHost, EnvLogLevel, EnvMaxContentBytes, EnvEmbedDimensions} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "memory.db", filepath.Base(c.DBPath))
	assert.Equal(t, "index", filepath.Base(c.IndexPath))
	assert.Equal(t, slog.LevelWarn, c.LogLevel)
	assert.Empty(t, c.Embed.Provider)
	assert.Equal(t, validate.DefaultLimits(), c.Limits())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDB, "/tmp/x.db")
	t.Setenv(EnvEmbedProvider, "ollama")
	t.Setenv(EnvEmbedModel, "all-minilm")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvMaxContentBytes, "2048")
	t.Setenv(EnvEmbedDimensions, "384, 3")
	t.Setenv(EnvOllamaHost, "http://gpu-box:11434")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", c.DBPath)
	assert.Equal(t, "ollama", c.Embed.Provider)
	assert.Equal(t, "all-minilm", c.Embed.Model)
	assert.Equal(t, "http://gpu-box:11434", c.Embed.URL)
	assert.Equal(t, slog.LevelDebug, c.LogLevel)

	l := c.Limits()
	assert.Equal(t, 2048, l.MaxContentBytes)
	assert.Equal(t, []int{384, 3}, l.EmbeddingDimensions)
	assert.Equal(t, validate.DefaultMaxStringChars, l.MaxStringChars)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvLogLevel, "loud"},
		{EnvMaxContentBytes, "lots"},
		{EnvMaxContentBytes, "-1"},
		{EnvEmbedDimensions, "384,x"},
		{EnvEmbedProvider, "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MEMFABRIC_INDEX=/data/index\nMEMFABRIC_LOG_LEVEL=info\n"), 0o644))
	// godotenv does not override variables that are already set.
	os.Unsetenv(EnvIndex)
	os.Unsetenv(EnvLogLevel)

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/index", c.IndexPath)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("shown", "id", "abc")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown id=abc")
}
