package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/validate"
)

// ErrNoInput is returned when a document stream holds no candidates.
var ErrNoInput = errors.New("no entries in input")

// DecodeCandidates parses JSON or YAML into untyped candidates. The input
// may be one entry, a list of entries, or a stream of YAML documents.
// Timestamp-looking scalars stay strings so the validator sees them as
// transported.
func DecodeCandidates(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse input: %w", err)
		}
		untagTimestamps(&node)
		var doc any
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse input: %w", err)
		}
		if doc == nil {
			continue
		}
		if list, ok := doc.([]any); ok {
			out = append(out, list...)
			continue
		}
		out = append(out, doc)
	}
	if len(out) == 0 {
		return nil, ErrNoInput
	}
	return out, nil
}

// untagTimestamps retags implicit !!timestamp scalars as strings so they
// decode to their source text instead of time.Time.
func untagTimestamps(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
		return
	}
	for _, c := range n.Content {
		untagTimestamps(c)
	}
}

// EncodeYAML renders an entry in its wire form as YAML.
func EncodeYAML(e *model.MemoryEntry) ([]byte, error) {
	wire, err := validate.ToWire(e)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Template returns a valid draft entry of type t with placeholder content,
// ready to be edited and stored.
func Template(t model.EntryType, project, branch string, now time.Time) (*model.MemoryEntry, error) {
	now = now.UTC().Truncate(time.Second)
	var c model.Content
	switch t {
	case model.TypeTaskState:
		c = model.TaskStateContent{
			Description:      "describe the task",
			Goals:            []string{},
			Context:          map[string]any{},
			ActiveFiles:      []string{},
			WorkingDirectory: ".",
		}
	case model.TypeCommitDelta:
		c = model.CommitDeltaContent{
			CommitHash: "0000000",
			Message:    "commit message",
			Author:     model.Author{Name: "name", Email: "name@example.com"},
			Files:      []model.FileChange{},
		}
	case model.TypeReasoningEntry:
		c = model.ReasoningEntryContent{
			ThreadID: uuid.NewString(),
			Model:    "model",
			Query:    "question",
		}
	case model.TypeSummaryCheckpoint:
		c = model.SummaryCheckpointContent{
			Period:       model.Period{Start: now.AddDate(0, 0, -7), End: now},
			Summary:      "summary",
			Achievements: []string{},
			Decisions:    []string{},
			Metrics:      map[string]float64{},
		}
	case model.TypeBranchMeta:
		c = model.BranchMetaContent{
			Purpose:      "why this branch exists",
			ParentBranch: "main",
			CreatedAt:    now,
		}
	default:
		return nil, fmt.Errorf("unknown entry type %q", t)
	}
	return &model.MemoryEntry{
		ID:        uuid.NewString(),
		Type:      t,
		Project:   project,
		Branch:    branch,
		Timestamp: now,
		Status:    model.StatusDraft,
		Content:   c,
	}, nil
}
