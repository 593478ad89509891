package validate

import (
	"fmt"

	"github.com/rcliao/memory-fabric/internal/model"
)

// contentSchema validates raw content as one variant.
type contentSchema func(c cursor, v any) (model.Content, bool)

func variant[T model.Content](r Rule[T]) contentSchema {
	return func(c cursor, v any) (model.Content, bool) {
		out, ok := r(c, v)
		if !ok {
			return nil, false
		}
		return out, true
	}
}

// contentSchemas must hold one schema per model.EntryTypes(); the dispatch
// tests enumerate the discriminants to enforce it.
var contentSchemas = map[model.EntryType]contentSchema{
	model.TypeTaskState:         variant(taskStateSchema()),
	model.TypeCommitDelta:       variant(commitDeltaSchema()),
	model.TypeReasoningEntry:    variant(reasoningEntrySchema()),
	model.TypeSummaryCheckpoint: variant(summaryCheckpointSchema()),
	model.TypeBranchMeta:        variant(branchMetaSchema()),
}

func unknownVariant(path []string, t model.EntryType) Error {
	return newError(KindUnknownVariant, CodeUnknownVariant,
		fmt.Sprintf("unknown entry type %q", t), path,
		map[string]any{"received": string(t), "options": model.EntryTypes()})
}

// Dispatch validates env.Content against the schema selected by env.Type.
// The returned entry carries no embedding; that is checked in the second phase.
func (v *Validator) Dispatch(env Envelope) Result[model.MemoryEntry] {
	schema, ok := contentSchemas[env.Type]
	if !ok {
		return failWith[model.MemoryEntry]([]Error{unknownVariant([]string{"type"}, env.Type)})
	}

	c, errs := newCursor(KindContentSchema, "content")
	content, ok := schema(c, env.Content)
	if !ok || len(*errs) > 0 {
		if len(*errs) == 0 {
			c.fail(CodeInvalidType, "content could not be validated", nil)
		}
		return failWith[model.MemoryEntry](*errs)
	}
	if content.EntryType() != env.Type {
		// Only reachable if the schema table is miswired.
		c.fail(CodeInvalidType, fmt.Sprintf("schema for %s produced %s content", env.Type, content.EntryType()), nil)
		return failWith[model.MemoryEntry](*errs)
	}

	return succeed(model.MemoryEntry{
		ID:        env.ID,
		Type:      env.Type,
		Project:   env.Project,
		TaskID:    env.TaskID,
		Branch:    env.Branch,
		Timestamp: env.Timestamp,
		Status:    env.Status,
		Content:   content,
		Metadata:  env.Metadata,
		Tags:      env.Tags,
	})
}
