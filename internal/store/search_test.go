package store

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-fabric/internal/model"
)

func seedSearch(t *testing.T, s *SQLiteStore) map[string]*model.MemoryEntry {
	t.Helper()
	entries := map[string]*model.MemoryEntry{
		"auth":   taskEntry("fabric", "main", "Implement authentication middleware"),
		"db":     taskEntry("fabric", "main", "Migrate database schema"),
		"remote": taskEntry("other", "main", "authentication for the other project"),
		"branch": branchEntry("fabric", "feature/auth", "OAuth login flow"),
	}
	for _, e := range entries {
		_, err := s.Put(context.Background(), e)
		require.NoError(t, err)
	}
	return entries
}

func resultIDs(results []SearchResult) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Entry.ID)
	}
	return out
}

func TestSearch_Keyword(t *testing.T) {
	s := newTestStore(t)
	entries := seedSearch(t, s)

	results, err := s.Search(context.Background(), SearchParams{Query: "authentication"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{entries["auth"].ID, entries["remote"].ID}, resultIDs(results))
	for _, r := range results {
		require.NotNil(t, r.MatchChunk)
		assert.Contains(t, r.MatchChunk.Text, "authentication")
	}
}

func TestSearch_PrefixAndCase(t *testing.T) {
	s := newTestStore(t)
	entries := seedSearch(t, s)

	results, err := s.Search(context.Background(), SearchParams{Query: "MIGRAT"})
	require.NoError(t, err)
	assert.Equal(t, []string{entries["db"].ID}, resultIDs(results))
}

func TestSearch_AllTermsMustMatch(t *testing.T) {
	s := newTestStore(t)
	entries := seedSearch(t, s)

	results, err := s.Search(context.Background(), SearchParams{Query: "authentication middleware"})
	require.NoError(t, err)
	assert.Equal(t, []string{entries["auth"].ID}, resultIDs(results))
}

func TestSearch_Filters(t *testing.T) {
	s := newTestStore(t)
	entries := seedSearch(t, s)
	ctx := context.Background()

	results, err := s.Search(ctx, SearchParams{Project: "fabric", Query: "authentication"})
	require.NoError(t, err)
	assert.Equal(t, []string{entries["auth"].ID}, resultIDs(results))

	results, err = s.Search(ctx, SearchParams{Type: model.TypeBranchMeta, Query: "login"})
	require.NoError(t, err)
	assert.Equal(t, []string{entries["branch"].ID}, resultIDs(results))

	results, err = s.Search(ctx, SearchParams{Branch: "main", Query: "login"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Tags(t *testing.T) {
	s := newTestStore(t)
	e := taskEntry("fabric", "main", "plain description")
	e.Tags = []string{"perf"}
	_, err := s.Put(context.Background(), e)
	require.NoError(t, err)

	results, err := s.Search(context.Background(), SearchParams{Query: "perf"})
	require.NoError(t, err)
	assert.Equal(t, []string{e.ID}, resultIDs(results))
}

func TestSearch_LongListMatchesLabelledChunk(t *testing.T) {
	s := newTestStore(t)
	e := taskEntry("fabric", "main", "touch many files")
	var files []string
	for i := 0; i < 60; i++ {
		files = append(files, fmt.Sprintf("pkg/module%02d/handler.go", i))
	}
	files = append(files, "pkg/zebrafile.go")
	c := e.Content.(model.TaskStateContent)
	c.ActiveFiles = files
	e.Content = c
	_, err := s.Put(context.Background(), e)
	require.NoError(t, err)

	results, err := s.Search(context.Background(), SearchParams{Query: "zebrafile"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	chunk := results[0].MatchChunk
	require.NotNil(t, chunk)
	assert.Equal(t, "files", chunk.Label)
	assert.True(t, strings.HasPrefix(chunk.Text, "files: "))
	assert.Greater(t, chunk.Seq, 0)
}

func TestSearch_UnsafeInput(t *testing.T) {
	s := newTestStore(t)
	seedSearch(t, s)
	ctx := context.Background()

	for _, q := range []string{"", "   ", "---", `"`, "AND OR NOT", `auth"* NEAR(`} {
		_, err := s.Search(ctx, SearchParams{Query: q})
		assert.NoError(t, err, "query %q", q)
	}

	results, err := s.Search(ctx, SearchParams{Query: "---"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_UpdatedAndDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	entries := seedSearch(t, s)

	e := entries["db"]
	c := e.Content.(model.TaskStateContent)
	c.Description = "Rewrite the query planner"
	e.Content = c
	_, err := s.Put(ctx, e)
	require.NoError(t, err)

	results, err := s.Search(ctx, SearchParams{Query: "schema"})
	require.NoError(t, err)
	assert.Empty(t, results, "old text must leave the index")

	results, err = s.Search(ctx, SearchParams{Query: "planner"})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	require.NoError(t, s.Rm(ctx, RmParams{ID: e.ID}))
	results, err = s.Search(ctx, SearchParams{Query: "planner"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Put(ctx, taskEntry("fabric", "main", "repeated keyword"))
		require.NoError(t, err)
	}

	results, err := s.Search(ctx, SearchParams{Query: "keyword", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"auth"* "flow"*`, ftsQuery("auth flow"))
	assert.Equal(t, `"say"* """hi"""*`, ftsQuery(`say "hi"`))
	assert.Equal(t, "", ftsQuery(" -- !! "))
}
