package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ProjectName reports every naming rule name breaks.
func (v *Validator) ProjectName(name string) Result[string] {
	c, errs := newCursor(KindProjectName, "project")
	n := utf8.RuneCountInString(name)
	if n < 1 {
		c.fail(CodeTooShort, "project name must not be empty", map[string]any{"minimum": 1})
	}
	if n > v.limits.ProjectMaxLen {
		c.fail(CodeTooLong, fmt.Sprintf("project name is %d characters, maximum is %d", n, v.limits.ProjectMaxLen),
			map[string]any{"maximum": v.limits.ProjectMaxLen, "received": n})
	}
	if !v.limits.ProjectPattern.MatchString(name) {
		c.fail(CodeInvalidFormat, "project name may only contain letters, digits, '_' and '-'",
			map[string]any{"pattern": v.limits.ProjectPattern.String()})
	}
	return settle(name, *errs)
}

// BranchName reports every naming rule name breaks.
func (v *Validator) BranchName(name string) Result[string] {
	c, errs := newCursor(KindBranchName, "branch")
	n := utf8.RuneCountInString(name)
	if n < 1 {
		c.fail(CodeTooShort, "branch name must not be empty", map[string]any{"minimum": 1})
	}
	if n > v.limits.BranchMaxLen {
		c.fail(CodeTooLong, fmt.Sprintf("branch name is %d characters, maximum is %d", n, v.limits.BranchMaxLen),
			map[string]any{"maximum": v.limits.BranchMaxLen, "received": n})
	}
	if !v.limits.BranchPattern.MatchString(name) {
		c.fail(CodeInvalidFormat, "branch name may only contain letters, digits, '/', '_' and '-'",
			map[string]any{"pattern": v.limits.BranchPattern.String()})
	}
	if strings.HasPrefix(name, "/") {
		c.fail(CodeLeadingSlash, "branch name must not start with '/'", nil)
	}
	if strings.HasSuffix(name, "/") {
		c.fail(CodeTrailingSlash, "branch name must not end with '/'", nil)
	}
	if strings.Contains(name, "//") {
		c.fail(CodeConsecutiveSlashes, "branch name must not contain '//'", nil)
	}
	return settle(name, *errs)
}

// ContentSize measures the canonical JSON form of content and returns its
// length in bytes. The character limit applies only when content itself is a
// string; strings nested inside structured content are not measured.
func (v *Validator) ContentSize(content any) Result[int] {
	c, errs := newCursor(KindContentSize, "content")
	size := 0
	b, err := canonicalJSON(content)
	switch {
	case err != nil:
		c.fail(CodeNotSerializable, "content cannot be serialized: "+err.Error(), nil)
	case len(b) > v.limits.MaxContentBytes:
		size = len(b)
		c.fail(CodeContentTooLarge, fmt.Sprintf("content is %d bytes, maximum is %d", len(b), v.limits.MaxContentBytes),
			map[string]any{"maximum": v.limits.MaxContentBytes, "received": len(b)})
	default:
		size = len(b)
	}
	if s, ok := content.(string); ok {
		if n := utf8.RuneCountInString(s); n > v.limits.MaxStringChars {
			c.fail(CodeStringTooLong, fmt.Sprintf("content string is %d characters, maximum is %d", n, v.limits.MaxStringChars),
				map[string]any{"maximum": v.limits.MaxStringChars, "received": n})
		}
	}
	return settle(size, *errs)
}

// Embedding checks that an embedding is non-empty, has a supported
// dimension and holds only finite numbers. Element errors are addressed by
// index alone.
func (v *Validator) Embedding(embedding any) Result[[]float64] {
	c, errs := newCursor(KindEmbedding)
	items, ok := asSlice(embedding)
	if !ok {
		c.fail(CodeInvalidValue, "embedding must be an array of numbers, received "+typeName(embedding), nil)
		return failWith[[]float64](*errs)
	}
	if len(items) == 0 {
		c.fail(CodeEmptyEmbedding, "embedding must not be empty", nil)
	}
	if !v.limits.dimensionSupported(len(items)) {
		c.fail(CodeInvalidDimension, fmt.Sprintf("embedding has %d dimensions, supported: %v", len(items), v.limits.EmbeddingDimensions),
			map[string]any{"received": len(items), "supported": v.limits.EmbeddingDimensions})
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, ok := toFloat(item)
		switch {
		case !ok:
			c.at(strconv.Itoa(i)).fail(CodeInvalidValue, "embedding element is not a number: "+typeName(item), nil)
		case math.IsNaN(f):
			c.at(strconv.Itoa(i)).fail(CodeInvalidValue, "embedding element is NaN", nil)
		case math.IsInf(f, 0):
			c.at(strconv.Itoa(i)).fail(CodeInvalidValue, "embedding element is infinite", nil)
		}
		out[i] = f
	}
	return settle(out, *errs)
}

// canonicalJSON is the text form content is measured in: encoding/json
// output without HTML escaping or a trailing newline.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
