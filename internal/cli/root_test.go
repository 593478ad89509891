package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-fabric/internal/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	dbPath, indexPath, envFile, logLevel, formatFlag = "", "", "", "", "json"
	t.Cleanup(func() {
		dbPath, indexPath, envFile, logLevel, formatFlag = "", "", "", "", "json"
		cfg, logger = nil, nil
	})
	for _, k := range []string{config.EnvDB, config.EnvIndex, config.EnvLogLevel, config.EnvEmbedProvider} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	t.Setenv(config.EnvDB, filepath.Join(dir, "env.db"))

	dbPath = filepath.Join(dir, "flag.db")
	indexPath = filepath.Join(dir, "index")
	logLevel = "debug"
	require.NoError(t, loadConfig(&cobra.Command{}, nil))
	assert.Equal(t, dbPath, cfg.DBPath)
	assert.NotNil(t, logger)

	a, err := openApp()
	require.NoError(t, err)
	defer a.Close()
	assert.FileExists(t, dbPath)
}

func TestLoadConfig_Rejects(t *testing.T) {
	resetFlags(t)
	logLevel = "chatty"
	assert.ErrorIs(t, loadConfig(&cobra.Command{}, nil), config.ErrInvalidConfig)

	resetFlags(t)
	formatFlag = "xml"
	assert.Error(t, loadConfig(&cobra.Command{}, nil))

	resetFlags(t)
	envFile = filepath.Join(t.TempDir(), "missing.env")
	assert.Error(t, loadConfig(&cobra.Command{}, nil))
}

func TestRender(t *testing.T) {
	resetFlags(t)
	v := map[string]any{"id": "abc", "tags": []string{"x"}}

	var buf bytes.Buffer
	render(&buf, v)
	assert.JSONEq(t, `{"id":"abc","tags":["x"]}`, buf.String())

	buf.Reset()
	formatFlag = "yaml"
	render(&buf, v)
	assert.Equal(t, "id: abc\ntags:\n  - x\n", buf.String())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"validate", "put", "get", "list", "rm", "search", "context",
		"stats", "projects", "export", "import", "link", "new", "serve", "reindex"} {
		assert.True(t, names[want], want)
	}
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, splitTags(""))
	assert.Equal(t, []string{"store", "sql"}, splitTags(" store, ,sql ,"))
}

func TestSearchSemanticFlags(t *testing.T) {
	var search *cobra.Command
	for _, c := range RootCmd.Commands() {
		if c.Name() == "search" {
			search = c
		}
	}
	require.NotNil(t, search)
	assert.NotNil(t, search.Flags().Lookup("threshold"))
	assert.NotNil(t, search.Flags().Lookup("tags"))
}
