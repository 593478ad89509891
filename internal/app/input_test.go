package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/validate"
)

const yamlEntry = `
id: 3f2b8c1e-4d5a-4e6f-8a9b-0c1d2e3f4a5b
type: TaskState
project: fabric
taskId: null
branch: feature/store
timestamp: 2024-05-01T12:00:00Z
status: draft
tags: [store]
content:
  description: wire the store
  goals: [persist entries]
  progress: 40
  context: {}
  activeFiles: [internal/store/sqlite.go]
  workingDirectory: /src/fabric
`

func TestDecodeCandidates_YAML(t *testing.T) {
	cands, err := DecodeCandidates([]byte(yamlEntry))
	require.NoError(t, err)
	require.Len(t, cands, 1)

	m := cands[0].(map[string]any)
	assert.Equal(t, "2024-05-01T12:00:00Z", m["timestamp"], "timestamps stay strings")

	res := validate.ValidateMemoryEntry(cands[0])
	require.True(t, res.Success, "%v", res.Errors)
	c := res.Data.Content.(model.TaskStateContent)
	assert.Equal(t, 40.0, c.Progress)
	assert.Nil(t, res.Data.TaskID)
}

func TestDecodeCandidates_DateOnlyTimestamp(t *testing.T) {
	const doc = `
id: 3f2b8c1e-4d5a-4e6f-8a9b-0c1d2e3f4a5b
type: ReasoningEntry
project: fabric
branch: main
timestamp: %s
status: draft
content:
  threadId: 0d6c2a4e-9b1f-4c3d-8e7a-5f6b7c8d9e0f
  model: gpt
  query: %s
  response: use the index
`
	cands, err := DecodeCandidates([]byte(fmt.Sprintf(doc, "2024-05-01", "2024-05-01")))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", cands[0].(map[string]any)["timestamp"])

	res := validate.ValidateMemoryEntry(cands[0])
	require.False(t, res.Success)
	require.Len(t, res.Errors, 1, "%v", res.Errors)
	assert.Equal(t, validate.CodeInvalidTimestamp, res.Errors[0].Code)
	assert.Equal(t, []string{"timestamp"}, res.Errors[0].Path)

	cands, err = DecodeCandidates([]byte(fmt.Sprintf(doc, "2024-05-01T12:00:00Z", "2024-05-01")))
	require.NoError(t, err)
	res = validate.ValidateMemoryEntry(cands[0])
	require.True(t, res.Success, "%v", res.Errors)
	assert.Equal(t, "2024-05-01", res.Data.Content.(model.ReasoningEntryContent).Query)
}

func TestDecodeCandidates_JSONArrayAndStream(t *testing.T) {
	cands, err := DecodeCandidates([]byte(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, cands, 2)

	cands, err = DecodeCandidates([]byte("id: a\n---\nid: b\n---\n"))
	require.NoError(t, err)
	assert.Len(t, cands, 2)
}

func TestDecodeCandidates_Errors(t *testing.T) {
	_, err := DecodeCandidates([]byte("   \n"))
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = DecodeCandidates([]byte("{unclosed: [1, 2"))
	assert.ErrorContains(t, err, "parse input")
}

func TestTemplate_AllTypesValidate(t *testing.T) {
	for _, typ := range model.EntryTypes() {
		t.Run(string(typ), func(t *testing.T) {
			e, err := Template(typ, "fabric", "main", time.Now())
			require.NoError(t, err)
			res := validate.New(validate.DefaultLimits()).ValidateEntry(e)
			assert.True(t, res.Success, "%v", res.Errors)
		})
	}

	_, err := Template("Nope", "fabric", "main", time.Now())
	assert.Error(t, err)
}

func TestEncodeYAML_RoundTrip(t *testing.T) {
	e, err := Template(model.TypeSummaryCheckpoint, "fabric", "main", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	out, err := EncodeYAML(e)
	require.NoError(t, err)
	assert.Contains(t, string(out), "type: SummaryCheckpoint")

	cands, err := DecodeCandidates(out)
	require.NoError(t, err)
	res := validate.ValidateMemoryEntry(cands[0])
	require.True(t, res.Success, "%v", res.Errors)
	assert.Equal(t, e.ID, res.Data.ID)
	assert.True(t, e.Timestamp.Equal(res.Data.Timestamp))
}
