package validate

import (
	"github.com/rcliao/memory-fabric/internal/model"
)

const testID = "3f2b8c1e-4d5a-4e6f-8a9b-0c1d2e3f4a5b"

func envelope(t model.EntryType, content map[string]any) map[string]any {
	return map[string]any{
		"id":        testID,
		"type":      string(t),
		"project":   "memory-fabric",
		"taskId":    "T-42",
		"branch":    "feature/validation",
		"timestamp": "2024-05-01T12:00:00Z",
		"status":    "draft",
		"content":   content,
		"metadata":  map[string]any{"source": "hook", "attempt": 2},
		"tags":      []any{"validation", "core"},
	}
}

func taskStateContent() map[string]any {
	return map[string]any{
		"description":      "wire up the validator",
		"goals":            []any{"structural", "dispatch"},
		"progress":         40,
		"context":          map[string]any{"editor": "vim", "depth": 3, "nested": map[string]any{"ok": true}},
		"activeFiles":      []any{"internal/validate/validate.go"},
		"workingDirectory": "/src/memory-fabric",
		"dependencies":     []any{},
		"blockers":         []any{"none yet"},
	}
}

func commitDeltaContent() map[string]any {
	return map[string]any{
		"commitHash": "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0",
		"message":    "Add branch name validator",
		"author":     map[string]any{"name": "Ada", "email": "ada@example.com"},
		"files": []any{
			map[string]any{"path": "fields.go", "action": "modified", "linesAdded": 30, "linesDeleted": 0},
			map[string]any{"path": "old.go", "action": "deleted"},
		},
		"semantic": map[string]any{
			"functions": []any{"BranchName"},
			"classes":   []any{},
			"imports":   []any{"strings"},
			"configs":   []any{},
		},
	}
}

func reasoningEntryContent() map[string]any {
	return map[string]any{
		"threadId":  "thread-1",
		"model":     "local-model",
		"query":     "why does dispatch fail fast?",
		"response":  "content checks are meaningless on a broken envelope",
		"reasoning": "phase one guards phase two",
		"codeRefs": []any{
			map[string]any{"file": "validate.go", "lines": []any{10, 42}, "content": "func Validate"},
			map[string]any{"file": "dispatch.go"},
		},
		"actions": []any{"document"},
	}
}

func summaryCheckpointContent() map[string]any {
	return map[string]any{
		"period":            map[string]any{"start": "2024-04-01T00:00:00Z", "end": "2024-04-30T23:59:59Z"},
		"summary":           "validation engine landed",
		"achievements":      []any{"five schemas"},
		"decisions":         []any{"collect all phase-two errors"},
		"technicalDebt":     []any{},
		"metrics":           map[string]any{"commits": 12, "coverage": 81.5},
		"compressedEntries": []any{testID},
	}
}

func branchMetaContent() map[string]any {
	return map[string]any{
		"purpose":       "entry validation",
		"parentBranch":  "main",
		"childBranches": []any{"feature/validation-tests"},
		"createdAt":     "2024-03-15T09:30:00+02:00",
		"mergeTarget":   "main",
		"featureFlags":  []any{"strict-embedding"},
		"environment":   "staging",
	}
}

// validCandidates returns one well-formed candidate per entry type.
func validCandidates() map[model.EntryType]map[string]any {
	return map[model.EntryType]map[string]any{
		model.TypeTaskState:         envelope(model.TypeTaskState, taskStateContent()),
		model.TypeCommitDelta:       envelope(model.TypeCommitDelta, commitDeltaContent()),
		model.TypeReasoningEntry:    envelope(model.TypeReasoningEntry, reasoningEntryContent()),
		model.TypeSummaryCheckpoint: envelope(model.TypeSummaryCheckpoint, summaryCheckpointContent()),
		model.TypeBranchMeta:        envelope(model.TypeBranchMeta, branchMetaContent()),
	}
}

func embeddingOf(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = float64(i%7) / 10
	}
	return out
}

func codes(errs []Error) []Code {
	out := make([]Code, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func kinds(errs []Error) []Kind {
	out := make([]Kind, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Kind)
	}
	return out
}
