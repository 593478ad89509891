package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-fabric/internal/app"
	"github.com/rcliao/memory-fabric/internal/embedding"
	"github.com/rcliao/memory-fabric/internal/index"
	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/store"
	"github.com/rcliao/memory-fabric/internal/validate"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	v := validate.New(validate.DefaultLimits())
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), v, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(app.New(v, s, index.NewInMemory(v, nil), nil, nil))
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res.Content[0].(mcp.TextContent).Text, res.IsError
}

func entryJSON(t *testing.T, description string) (string, string) {
	t.Helper()
	e, err := app.Template(model.TypeTaskState, "fabric", "main", time.Now())
	require.NoError(t, err)
	c := e.Content.(model.TaskStateContent)
	c.Description = description
	e.Content = c
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return string(b), e.ID
}

func TestValidateTool(t *testing.T) {
	s := newTestServer(t)

	doc, _ := entryJSON(t, "valid")
	text, isErr := call(t, s.validateHandler, map[string]any{"entry": doc})
	assert.False(t, isErr)
	assert.Contains(t, text, `"success": true`)

	text, isErr = call(t, s.validateHandler, map[string]any{"entry": "type: TaskState\nproject: bad name!\n"})
	assert.False(t, isErr, "a failed validation is data")
	var res validate.Result[model.MemoryEntry]
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Errors)

	_, isErr = call(t, s.validateHandler, map[string]any{})
	assert.True(t, isErr)
	_, isErr = call(t, s.validateHandler, map[string]any{"entry": "[{id: a}, {id: b}]"})
	assert.True(t, isErr)
}

func TestStoreGetDeleteTools(t *testing.T) {
	s := newTestServer(t)
	doc, id := entryJSON(t, "remember the index layout")

	text, isErr := call(t, s.storeHandler, map[string]any{"entry": doc})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"revision": 1`)

	text, isErr = call(t, s.getHandler, map[string]any{"id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "remember the index layout")

	text, isErr = call(t, s.listHandler, map[string]any{"project": "fabric", "limit": float64(5)})
	require.False(t, isErr)
	assert.Contains(t, text, id)

	text, isErr = call(t, s.searchHandler, map[string]any{"query": "index layout"})
	require.False(t, isErr)
	assert.Contains(t, text, id)

	text, isErr = call(t, s.contextHandler, map[string]any{"project": "fabric", "budget": float64(1000)})
	require.False(t, isErr)
	assert.Contains(t, text, id)

	text, isErr = call(t, s.deleteHandler, map[string]any{"id": id, "hard": true})
	require.False(t, isErr)
	assert.Contains(t, text, "deleted")

	_, isErr = call(t, s.getHandler, map[string]any{"id": id})
	assert.True(t, isErr)
	text, _ = call(t, s.listHandler, map[string]any{"project": "fabric"})
	assert.Equal(t, "No entries found.", text)
}

func TestStoreToolRejectsInvalid(t *testing.T) {
	s := newTestServer(t)
	text, isErr := call(t, s.storeHandler, map[string]any{"entry": `{"type":"TaskState"}`})
	assert.True(t, isErr)
	assert.Contains(t, text, "REQUIRED")
}

func TestSemanticSearchWithoutEmbedder(t *testing.T) {
	s := newTestServer(t)
	text, isErr := call(t, s.searchHandler, map[string]any{"query": "x", "semantic": true})
	assert.True(t, isErr)
	assert.Contains(t, text, app.ErrNoEmbedder.Error())
}

// axisEmbedder maps text mentioning "index" and everything else onto
// orthogonal axes.
type axisEmbedder struct{}

func (axisEmbedder) Embed(_ context.Context, text string) (embedding.Vector, error) {
	v := make(embedding.Vector, 384)
	v[383] = 0.01
	if strings.Contains(text, "index") {
		v[0] = 1
	} else {
		v[1] = 1
	}
	return v, nil
}

func (axisEmbedder) Dims() int { return 384 }

func TestSemanticSearchThresholdAndTags(t *testing.T) {
	v := validate.New(validate.DefaultLimits())
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), v, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	s := New(app.New(v, st, index.NewInMemory(v, nil), axisEmbedder{}, nil))

	put := func(description string, tags ...string) string {
		e, err := app.Template(model.TypeTaskState, "fabric", "main", time.Now())
		require.NoError(t, err)
		c := e.Content.(model.TaskStateContent)
		c.Description = description
		e.Content = c
		e.Tags = tags
		b, err := json.Marshal(e)
		require.NoError(t, err)
		text, isErr := call(t, s.storeHandler, map[string]any{"entry": string(b), "embed": true})
		require.False(t, isErr, text)
		return e.ID
	}
	near := put("tune the index", "vector")
	far := put("write docs", "docs")

	text, isErr := call(t, s.searchHandler, map[string]any{"query": "index", "semantic": true})
	require.False(t, isErr, text)
	assert.Contains(t, text, near)
	assert.Contains(t, text, far)

	text, isErr = call(t, s.searchHandler, map[string]any{"query": "index", "semantic": true, "threshold": 0.5})
	require.False(t, isErr, text)
	assert.Contains(t, text, near)
	assert.NotContains(t, text, far)

	text, isErr = call(t, s.searchHandler, map[string]any{"query": "index", "semantic": true, "tags": "docs"})
	require.False(t, isErr, text)
	assert.NotContains(t, text, near)
	assert.Contains(t, text, far)

	_, isErr = call(t, s.searchHandler, map[string]any{"query": "index", "semantic": true, "threshold": 2.0})
	assert.True(t, isErr)
}

func TestMissingIDs(t *testing.T) {
	s := newTestServer(t)
	_, isErr := call(t, s.getHandler, nil)
	assert.True(t, isErr)
	_, isErr = call(t, s.deleteHandler, map[string]any{"id": "  "})
	assert.True(t, isErr)
	_, isErr = call(t, s.searchHandler, map[string]any{})
	assert.True(t, isErr)
}

func TestMCPServerRegistersTools(t *testing.T) {
	s := newTestServer(t)
	m := s.MCPServer("test")
	tools := m.ListTools()
	for _, name := range []string{"validate_entry", "store_entry", "get_entry", "list_entries",
		"search_entries", "build_context", "delete_entry"} {
		assert.Contains(t, tools, name)
	}
}
