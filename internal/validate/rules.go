package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// cursor tracks where a rule is looking and collects what it finds.
type cursor struct {
	kind Kind
	path []string
	errs *[]Error
}

func newCursor(kind Kind, path ...string) (cursor, *[]Error) {
	errs := new([]Error)
	return cursor{kind: kind, path: path, errs: errs}, errs
}

func (c cursor) at(key string) cursor {
	p := make([]string, 0, len(c.path)+1)
	p = append(append(p, c.path...), key)
	return cursor{kind: c.kind, path: p, errs: c.errs}
}

func (c cursor) fail(code Code, msg string, ctx map[string]any) {
	*c.errs = append(*c.errs, newError(c.kind, code, msg, c.path, ctx))
}

func (c cursor) count() int { return len(*c.errs) }

// Rule checks one raw value and converts it to T. It reports every violation
// through the cursor and returns false if any was found.
type Rule[T any] func(c cursor, v any) (T, bool)

// String accepts string values.
func String() Rule[string] {
	return func(c cursor, v any) (string, bool) {
		s, ok := v.(string)
		if !ok {
			c.fail(CodeInvalidType, "expected string, received "+typeName(v), nil)
			return "", false
		}
		return s, true
	}
}

// NonEmpty rejects the empty string.
func NonEmpty(r Rule[string]) Rule[string] {
	return func(c cursor, v any) (string, bool) {
		s, ok := r(c, v)
		if ok && s == "" {
			c.fail(CodeTooSmall, "must not be empty", map[string]any{"minimum": 1})
			return s, false
		}
		return s, ok
	}
}

// Pattern requires the string to match re.
func Pattern(r Rule[string], re *regexp.Regexp) Rule[string] {
	return func(c cursor, v any) (string, bool) {
		s, ok := r(c, v)
		if ok && !re.MatchString(s) {
			c.fail(CodeInvalidFormat, fmt.Sprintf("%q does not match %s", s, re), nil)
			return s, false
		}
		return s, ok
	}
}

// Email requires a bare address such as dev@example.com.
func Email() Rule[string] {
	return func(c cursor, v any) (string, bool) {
		s, ok := String()(c, v)
		if !ok {
			return s, false
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			c.fail(CodeInvalidFormat, fmt.Sprintf("%q is not a valid email address", s), nil)
			return s, false
		}
		return s, true
	}
}

// Number accepts any finite numeric value.
func Number() Rule[float64] {
	return func(c cursor, v any) (float64, bool) {
		f, ok := toFloat(v)
		if !ok {
			c.fail(CodeInvalidType, "expected number, received "+typeName(v), nil)
			return 0, false
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			c.fail(CodeInvalidType, "expected finite number", map[string]any{"received": fmt.Sprint(f)})
			return 0, false
		}
		return f, true
	}
}

// Range bounds a number to [lo, hi].
func Range(r Rule[float64], lo, hi float64) Rule[float64] {
	return func(c cursor, v any) (float64, bool) {
		f, ok := r(c, v)
		if !ok {
			return f, false
		}
		switch {
		case f < lo:
			c.fail(CodeTooSmall, fmt.Sprintf("%g is less than %g", f, lo), map[string]any{"minimum": lo, "received": f})
			return f, false
		case f > hi:
			c.fail(CodeTooBig, fmt.Sprintf("%g is greater than %g", f, hi), map[string]any{"maximum": hi, "received": f})
			return f, false
		}
		return f, true
	}
}

// Integer accepts finite numbers with no fractional part.
func Integer() Rule[int] {
	return func(c cursor, v any) (int, bool) {
		f, ok := Number()(c, v)
		if !ok {
			return 0, false
		}
		if f != math.Trunc(f) || math.Abs(f) > float64(math.MaxInt32) {
			c.fail(CodeInvalidType, fmt.Sprintf("expected integer, received %g", f), nil)
			return 0, false
		}
		return int(f), true
	}
}

// NonNegative rejects integers below zero.
func NonNegative(r Rule[int]) Rule[int] {
	return func(c cursor, v any) (int, bool) {
		n, ok := r(c, v)
		if ok && n < 0 {
			c.fail(CodeTooSmall, fmt.Sprintf("%d is less than 0", n), map[string]any{"minimum": 0, "received": n})
			return n, false
		}
		return n, ok
	}
}

// Enum accepts one of values.
func Enum[T ~string](values ...T) Rule[T] {
	allowed := make(map[string]bool, len(values))
	options := make([]string, 0, len(values))
	for _, v := range values {
		allowed[string(v)] = true
		options = append(options, string(v))
	}
	return func(c cursor, v any) (T, bool) {
		s, ok := String()(c, v)
		if !ok {
			return "", false
		}
		if !allowed[s] {
			c.fail(CodeInvalidEnum, fmt.Sprintf("%q is not one of %v", s, options),
				map[string]any{"options": options, "received": s})
			return T(s), false
		}
		return T(s), true
	}
}

// Timestamp accepts RFC 3339 strings (or time.Time) and normalizes to UTC.
func Timestamp() Rule[time.Time] {
	return func(c cursor, v any) (time.Time, bool) {
		switch t := v.(type) {
		case time.Time:
			return t.Round(0).UTC(), true
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				c.fail(CodeInvalidTimestamp, fmt.Sprintf("%q is not an ISO-8601 timestamp", t), nil)
				return time.Time{}, false
			}
			return parsed.UTC(), true
		}
		c.fail(CodeInvalidType, "expected timestamp string, received "+typeName(v), nil)
		return time.Time{}, false
	}
}

// ArrayOf applies elem to every element, reporting failures by index.
func ArrayOf[T any](elem Rule[T]) Rule[[]T] {
	return func(c cursor, v any) ([]T, bool) {
		items, ok := asSlice(v)
		if !ok {
			c.fail(CodeInvalidType, "expected array, received "+typeName(v), nil)
			return nil, false
		}
		out := make([]T, 0, len(items))
		valid := true
		for i, item := range items {
			t, ok := elem(c.at(strconv.Itoa(i)), item)
			valid = valid && ok
			out = append(out, t)
		}
		return out, valid
	}
}

// MapOf applies elem to every value of an object, in key order.
func MapOf[T any](elem Rule[T]) Rule[map[string]T] {
	return func(c cursor, v any) (map[string]T, bool) {
		m, ok := asMap(v)
		if !ok {
			c.fail(CodeInvalidType, "expected object, received "+typeName(v), nil)
			return nil, false
		}
		out := make(map[string]T, len(m))
		valid := true
		for _, k := range sortedKeys(m) {
			t, ok := elem(c.at(k), m[k])
			valid = valid && ok
			out[k] = t
		}
		return out, valid
	}
}

// OpenObject accepts any object and returns a normalized copy of it.
func OpenObject() Rule[map[string]any] {
	return func(c cursor, v any) (map[string]any, bool) {
		m, ok := asMap(v)
		if !ok {
			c.fail(CodeInvalidType, "expected object, received "+typeName(v), nil)
			return nil, false
		}
		return normalizeMap(m), true
	}
}

// Object checks that v is an object and builds T from its fields.
func Object[T any](build func(f *Fields) T) Rule[T] {
	return func(c cursor, v any) (T, bool) {
		m, ok := asMap(v)
		if !ok {
			c.fail(CodeInvalidType, "expected object, received "+typeName(v), nil)
			var zero T
			return zero, false
		}
		before := c.count()
		out := build(&Fields{c: c, m: m})
		return out, c.count() == before
	}
}

// Fields gives field-level access to an object being checked.
type Fields struct {
	c cursor
	m map[string]any
}

func (f *Fields) lookup(key string) (any, bool) {
	v, ok := f.m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Required reads a field that must be present and non-null.
func Required[T any](f *Fields, key string, r Rule[T]) T {
	v, ok := f.lookup(key)
	if !ok {
		f.c.at(key).fail(CodeRequired, key+" is required", nil)
		var zero T
		return zero
	}
	out, _ := r(f.c.at(key), v)
	return out
}

// Optional reads a field that may be absent or null.
func Optional[T any](f *Fields, key string, r Rule[T]) T {
	out, _ := OptionalOK(f, key, r)
	return out
}

// OptionalOK is Optional that also reports presence.
func OptionalOK[T any](f *Fields, key string, r Rule[T]) (T, bool) {
	var zero T
	v, ok := f.lookup(key)
	if !ok {
		return zero, false
	}
	out, valid := r(f.c.at(key), v)
	if !valid {
		return zero, false
	}
	return out, true
}

// OptionalPtr is Optional returning nil when the field is absent.
func OptionalPtr[T any](f *Fields, key string, r Rule[T]) *T {
	out, ok := OptionalOK(f, key, r)
	if !ok {
		return nil
	}
	return &out
}

// OptionalList reads an optional array; an empty array reads as absent.
func OptionalList[T any](f *Fields, key string, elem Rule[T]) []T {
	out := Optional(f, key, ArrayOf(elem))
	if len(out) == 0 {
		return nil
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	if _, ok := asMap(v); ok {
		return "object"
	}
	if _, ok := asSlice(v); ok {
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// normalizeMap deep-copies an open object into the shape encoding/json
// produces when decoding: float64 numbers, []any arrays, map[string]any objects.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case map[string]any:
		return normalizeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	if m, ok := asMap(v); ok {
		return normalizeMap(m)
	}
	if s, ok := asSlice(v); ok {
		return normalizeValue(s)
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return v
}
