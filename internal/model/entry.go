// Package model defines the memory entry envelope and its content variants.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryType is the discriminant that selects the shape of an entry's content.
type EntryType string

const (
	TypeTaskState         EntryType = "TaskState"
	TypeCommitDelta       EntryType = "CommitDelta"
	TypeReasoningEntry    EntryType = "ReasoningEntry"
	TypeSummaryCheckpoint EntryType = "SummaryCheckpoint"
	TypeBranchMeta        EntryType = "BranchMeta"
)

// EntryTypes returns every known discriminant in declaration order.
func EntryTypes() []EntryType {
	return []EntryType{
		TypeTaskState,
		TypeCommitDelta,
		TypeReasoningEntry,
		TypeSummaryCheckpoint,
		TypeBranchMeta,
	}
}

// Valid reports whether t is one of the known discriminants.
func (t EntryType) Valid() bool {
	_, ok := contentDecoders[t]
	return ok
}

// Status is the lifecycle state of an entry. Transitions are not checked here.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusVerified Status = "verified"
	StatusArchived Status = "archived"
)

// Statuses returns the allowed status values.
func Statuses() []Status {
	return []Status{StatusDraft, StatusVerified, StatusArchived}
}

// Valid reports whether s is an allowed status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusVerified, StatusArchived:
		return true
	}
	return false
}

// MemoryEntry is one unit of captured development context.
type MemoryEntry struct {
	ID        string         `json:"id"`
	Type      EntryType      `json:"type"`
	Project   string         `json:"project"`
	TaskID    *string        `json:"taskId"`
	Branch    string         `json:"branch"`
	Timestamp time.Time      `json:"timestamp"`
	Status    Status         `json:"status"`
	Content   Content        `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float64      `json:"embedding,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
}

// UnmarshalJSON decodes the wire shape, picking the content variant from type.
// It does not validate; use the validate package for untrusted input.
func (e *MemoryEntry) UnmarshalJSON(b []byte) error {
	type plain MemoryEntry
	var raw struct {
		plain
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	content, err := DecodeContent(raw.Type, raw.Content)
	if err != nil {
		return err
	}
	*e = MemoryEntry(raw.plain)
	e.Content = content
	return nil
}

// DecodeContent decodes raw JSON into the variant registered for t.
func DecodeContent(t EntryType, raw json.RawMessage) (Content, error) {
	decode, ok := contentDecoders[t]
	if !ok {
		return nil, fmt.Errorf("unknown entry type %q", t)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing content for %s", t)
	}
	return decode(raw)
}

var contentDecoders = map[EntryType]func(json.RawMessage) (Content, error){
	TypeTaskState:         decodeAs[TaskStateContent],
	TypeCommitDelta:       decodeAs[CommitDeltaContent],
	TypeReasoningEntry:    decodeAs[ReasoningEntryContent],
	TypeSummaryCheckpoint: decodeAs[SummaryCheckpointContent],
	TypeBranchMeta:        decodeAs[BranchMetaContent],
}

func decodeAs[T Content](raw json.RawMessage) (Content, error) {
	var c T
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return c, nil
}
