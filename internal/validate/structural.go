package validate

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/memory-fabric/internal/model"
)

// Envelope is an entry whose envelope fields are well formed but whose
// content has not been checked against its variant yet.
type Envelope struct {
	ID        string
	Type      model.EntryType
	Project   string
	TaskID    *string
	Branch    string
	Timestamp time.Time
	Status    model.Status
	Content   map[string]any
	Metadata  map[string]any
	Tags      []string

	// Embedding holds the raw elements; HasEmbedding is false when the
	// field was absent or null.
	Embedding    []any
	HasEmbedding bool
}

// uuidRule accepts the canonical 8-4-4-4-12 form only.
func uuidRule() Rule[string] {
	return func(c cursor, v any) (string, bool) {
		s, ok := String()(c, v)
		if !ok {
			return s, false
		}
		if len(s) != 36 {
			c.fail(CodeInvalidUUID, "id must be a UUID", map[string]any{"received": s})
			return s, false
		}
		if _, err := uuid.Parse(s); err != nil {
			c.fail(CodeInvalidUUID, "id must be a UUID", map[string]any{"received": s})
			return s, false
		}
		return s, true
	}
}

// entryTypeRule reports unrecognised discriminants as UnknownVariantError.
func entryTypeRule() Rule[model.EntryType] {
	return func(c cursor, v any) (model.EntryType, bool) {
		s, ok := String()(c, v)
		if !ok {
			return "", false
		}
		t := model.EntryType(s)
		if !t.Valid() {
			*c.errs = append(*c.errs, unknownVariant(c.path, t))
			return t, false
		}
		return t, true
	}
}

func rawArray() Rule[[]any] {
	return func(c cursor, v any) ([]any, bool) {
		items, ok := asSlice(v)
		if !ok {
			c.fail(CodeInvalidType, "expected array, received "+typeName(v), nil)
			return nil, false
		}
		return items, true
	}
}

func rawObject() Rule[map[string]any] {
	return func(c cursor, v any) (map[string]any, bool) {
		m, ok := asMap(v)
		if !ok {
			c.fail(CodeInvalidType, "expected object, received "+typeName(v), nil)
			return nil, false
		}
		return m, true
	}
}

// dedupe drops repeated tags, keeping the first occurrence of each.
func dedupe(tags []string) []string {
	if len(tags) < 2 {
		return tags
	}
	seen := make(map[string]bool, len(tags))
	out := tags[:0:0]
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Structural checks the envelope of candidate independent of its variant.
// Every envelope violation is reported; content is only checked to be an object.
func (v *Validator) Structural(candidate any) Result[Envelope] {
	c, errs := newCursor(KindStructural)
	env, _ := Object(func(f *Fields) Envelope {
		env := Envelope{
			ID:        Required(f, "id", uuidRule()),
			Type:      Required(f, "type", entryTypeRule()),
			Project:   Required(f, "project", NonEmpty(String())),
			TaskID:    OptionalPtr(f, "taskId", String()),
			Branch:    Required(f, "branch", NonEmpty(String())),
			Timestamp: Required(f, "timestamp", Timestamp()),
			Status:    Required(f, "status", Enum(model.Statuses()...)),
			Content:   Required(f, "content", rawObject()),
			Metadata:  Optional(f, "metadata", OpenObject()),
			Tags:      dedupe(OptionalList(f, "tags", String())),
		}
		env.Embedding, env.HasEmbedding = OptionalOK(f, "embedding", rawArray())
		if len(env.Metadata) == 0 {
			env.Metadata = nil
		}
		return env
	})(c, candidate)
	return settle(env, *errs)
}
