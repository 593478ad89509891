// Package validate turns untyped candidate values into validated memory entries.
//
// Validation runs in two phases. The structural check and the content dispatch
// fail fast: if either reports a problem, only that phase's errors come back.
// Once an entry is well formed, the field validators (project name, branch
// name, content size, embedding) all run and their errors are merged.
//
// Nothing in this package performs I/O, holds mutable state or panics on bad
// input, so a Validator may be shared freely between goroutines.
package validate

import (
	"errors"
	"fmt"
	"strings"
)

// Kind groups errors by the validator that produced them.
type Kind string

const (
	KindStructural     Kind = "StructuralError"
	KindUnknownVariant Kind = "UnknownVariantError"
	KindContentSchema  Kind = "ContentSchemaError"
	KindProjectName    Kind = "ProjectNameError"
	KindBranchName     Kind = "BranchNameError"
	KindContentSize    Kind = "ContentSizeError"
	KindEmbedding      Kind = "EmbeddingError"
)

// Code identifies the violated rule.
type Code string

const (
	CodeRequired         Code = "REQUIRED"
	CodeInvalidType      Code = "INVALID_TYPE"
	CodeInvalidEnum      Code = "INVALID_ENUM"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeInvalidUUID      Code = "INVALID_UUID"
	CodeInvalidTimestamp Code = "INVALID_TIMESTAMP"
	CodeInvalidRange     Code = "INVALID_RANGE"
	CodeTooSmall         Code = "TOO_SMALL"
	CodeTooBig           Code = "TOO_BIG"
	CodeUnknownVariant   Code = "UNKNOWN_VARIANT"

	CodeTooShort           Code = "TOO_SHORT"
	CodeTooLong            Code = "TOO_LONG"
	CodeLeadingSlash       Code = "LEADING_SLASH"
	CodeTrailingSlash      Code = "TRAILING_SLASH"
	CodeConsecutiveSlashes Code = "CONSECUTIVE_SLASHES"

	CodeContentTooLarge  Code = "CONTENT_TOO_LARGE"
	CodeStringTooLong    Code = "STRING_TOO_LONG"
	CodeNotSerializable  Code = "NOT_SERIALIZABLE"
	CodeEmptyEmbedding   Code = "EMPTY_EMBEDDING"
	CodeInvalidDimension Code = "INVALID_DIMENSION"
	CodeInvalidValue     Code = "INVALID_VALUE"
)

// Error is a single path-addressed violation.
type Error struct {
	Kind    Kind           `json:"kind"`
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Path    []string       `json:"path"`
	Context map[string]any `json:"context,omitempty"`
}

func newError(kind Kind, code Code, msg string, path []string, ctx map[string]any) Error {
	return Error{
		Kind:    kind,
		Code:    code,
		Message: msg,
		Path:    append([]string{}, path...),
		Context: ctx,
	}
}

func (e Error) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, strings.Join(e.Path, "."), e.Message)
}

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("invalid memory entry")

// ValidationError carries a failed result's errors across an error boundary.
type ValidationError struct {
	Errors []Error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, ve.Error())
	}
	return fmt.Sprintf("%v: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Filter returns the errors of the given kind, preserving order.
func Filter(errs []Error, kind Kind) []Error {
	var out []Error
	for _, e := range errs {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
