package validate

import (
	"encoding/json"

	"github.com/rcliao/memory-fabric/internal/model"
)

// Validator checks candidate entries against a fixed set of limits.
type Validator struct {
	limits Limits
}

// New returns a Validator for limits. Zero fields take their defaults.
func New(limits Limits) *Validator {
	return &Validator{limits: limits.withDefaults()}
}

// Limits returns a copy of the limits in use.
func (v *Validator) Limits() Limits {
	l := v.limits
	l.EmbeddingDimensions = append([]int(nil), l.EmbeddingDimensions...)
	return l
}

var defaultValidator = New(DefaultLimits())

// ValidateMemoryEntry validates candidate with the default limits.
func ValidateMemoryEntry(candidate any) Result[model.MemoryEntry] {
	return defaultValidator.Validate(candidate)
}

// Validate runs the structural check and content dispatch, stopping at the
// first phase that fails, then runs every field validator and merges their
// errors.
func (v *Validator) Validate(candidate any) Result[model.MemoryEntry] {
	env := v.Structural(candidate)
	if !env.Success {
		return failWith[model.MemoryEntry](env.Errors)
	}
	typed := v.Dispatch(*env.Data)
	if !typed.Success {
		return typed
	}

	entry := *typed.Data
	var errs []Error
	errs = append(errs, v.ProjectName(entry.Project).Errors...)
	errs = append(errs, v.BranchName(entry.Branch).Errors...)
	errs = append(errs, v.ContentSize(entry.Content).Errors...)
	if env.Data.HasEmbedding {
		emb := v.Embedding(env.Data.Embedding)
		errs = append(errs, emb.Errors...)
		if emb.Success {
			entry.Embedding = *emb.Data
		}
	}
	return settle(entry, errs)
}

// ValidateEntry re-validates a typed entry through its wire form.
func (v *Validator) ValidateEntry(e *model.MemoryEntry) Result[model.MemoryEntry] {
	if e == nil {
		c, errs := newCursor(KindStructural)
		c.fail(CodeRequired, "entry is required", nil)
		return failWith[model.MemoryEntry](*errs)
	}
	wire, err := ToWire(e)
	if err != nil {
		c, errs := newCursor(KindStructural)
		c.fail(CodeNotSerializable, "entry cannot be serialized: "+err.Error(), nil)
		return failWith[model.MemoryEntry](*errs)
	}
	return v.Validate(wire)
}

// ToWire converts a typed entry to the untyped value a transport would decode.
func ToWire(e *model.MemoryEntry) (any, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
