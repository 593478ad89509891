package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-fabric/internal/model"
)

func putPair(t *testing.T, s *SQLiteStore) (a, b *model.MemoryEntry) {
	t.Helper()
	a = taskEntry("fabric", "main", "memory a")
	b = taskEntry("fabric", "main", "memory b")
	for _, e := range []*model.MemoryEntry{a, b} {
		_, err := s.Put(context.Background(), e)
		require.NoError(t, err)
	}
	return a, b
}

func TestLinkCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := putPair(t, s)

	link, err := s.Link(ctx, LinkParams{FromID: a.ID, ToID: b.ID, Rel: RelRelatesTo})
	require.NoError(t, err)
	assert.Equal(t, RelRelatesTo, link.Rel)

	links, err := s.GetLinks(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, a.ID, links[0].FromID)

	// Idempotent
	_, err = s.Link(ctx, LinkParams{FromID: a.ID, ToID: b.ID, Rel: RelRelatesTo})
	require.NoError(t, err)
	links, _ = s.GetLinks(ctx, a.ID)
	assert.Len(t, links, 1)
}

func TestLinkRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := putPair(t, s)

	_, err := s.Link(ctx, LinkParams{FromID: a.ID, ToID: b.ID, Rel: RelDependsOn})
	require.NoError(t, err)
	_, err = s.Link(ctx, LinkParams{FromID: a.ID, ToID: b.ID, Rel: RelDependsOn, Remove: true})
	require.NoError(t, err)

	links, err := s.GetLinks(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestLinkInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := putPair(t, s)

	_, err := s.Link(ctx, LinkParams{FromID: a.ID, ToID: b.ID, Rel: "invalid"})
	assert.Error(t, err)

	_, err = s.Link(ctx, LinkParams{FromID: a.ID, ToID: b.ID, Rel: RelCompresses})
	assert.Error(t, err, "compresses links are managed by put")

	_, err = s.Link(ctx, LinkParams{FromID: a.ID, ToID: uuid.NewString(), Rel: RelRefines})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompressedEntriesBecomeLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := putPair(t, s)

	summary := &model.MemoryEntry{
		ID:        uuid.NewString(),
		Type:      model.TypeSummaryCheckpoint,
		Project:   "fabric",
		Branch:    "main",
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Status:    model.StatusVerified,
		Content: model.SummaryCheckpointContent{
			Period: model.Period{
				Start: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
			},
			Summary:           "april",
			Achievements:      []string{"store"},
			Decisions:         []string{"sqlite"},
			Metrics:           map[string]float64{"commits": 3},
			CompressedEntries: []string{a.ID, b.ID},
		},
	}
	_, err := s.Put(ctx, summary)
	require.NoError(t, err)

	links, err := s.GetLinks(ctx, summary.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		assert.Equal(t, RelCompresses, l.Rel)
	}

	// Rewriting the summary replaces its links.
	c := summary.Content.(model.SummaryCheckpointContent)
	c.CompressedEntries = []string{b.ID}
	summary.Content = c
	_, err = s.Put(ctx, summary)
	require.NoError(t, err)

	links, err = s.GetLinks(ctx, summary.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, b.ID, links[0].ToID)

	// Hard delete drops links on both ends.
	require.NoError(t, s.Rm(ctx, RmParams{ID: b.ID, Hard: true}))
	links, err = s.GetLinks(ctx, summary.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}
