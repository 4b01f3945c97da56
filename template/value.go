package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindString
	KindBytes
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Object is an insertion-ordered string-keyed map of Values: Keys returns
// keys in the order they were first Set. FromJSON fills objects from a Go
// map, so the key order of objects it builds is not defined.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject builds an empty ordered object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set inserts or overwrites a key, preserving original insertion order.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get returns the value for a key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }

// Value is the tagged union of scalar and composite values the template
// language can produce: one struct with a field per variant, of which
// only the field matching Kind is meaningful.
type Value struct {
	kind      Kind
	b         bool
	i         int64
	f         float64
	s         string
	by        []byte
	arr       []Value
	obj       *Object
	sensitive bool
}

// NewNull returns the Null value.
func NewNull() Value { return Value{kind: KindNull} }

// NewBool wraps a boolean.
func NewBool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// NewInt wraps an integer.
func NewInt(i int64) Value { return Value{kind: KindInteger, i: i} }

// NewFloat wraps a float.
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }

// NewString wraps a string.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewBytes wraps a byte slice.
func NewBytes(b []byte) Value { return Value{kind: KindBytes, by: b} }

// NewArray wraps a slice of values.
func NewArray(vs []Value) Value { return Value{kind: KindArray, arr: vs} }

// NewObjectValue wraps an ordered object.
func NewObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Kind reports the value's variant.
func (v Value) Kind() Kind { return v.kind }

// Sensitive reports whether this value was produced by (or wraps a value
// produced by) the `sensitive()` builtin, a hint that consumers should
// avoid persisting or displaying it in full (e.g. the history store and
// CLI output masking).
func (v Value) Sensitive() bool { return v.sensitive }

// WithSensitive returns a copy of v with its sensitive flag set.
func (v Value) WithSensitive() Value {
	v.sensitive = true
	return v
}

// IsNull reports whether the value is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload; only meaningful when Kind is Boolean.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload; only meaningful when Kind is Integer.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload; only meaningful when Kind is Float.
func (v Value) Float() float64 { return v.f }

// Str returns the string payload; only meaningful when Kind is String.
func (v Value) Str() string { return v.s }

// BytesPayload returns the byte payload; only meaningful when Kind is Bytes.
func (v Value) BytesPayload() []byte { return v.by }

// Array returns the element slice; only meaningful when Kind is Array.
func (v Value) Array() []Value { return v.arr }

// ObjectPayload returns the ordered object; only meaningful when Kind is Object.
func (v Value) ObjectPayload() *Object { return v.obj }

// ToBytes coerces the value to its raw byte representation, per the
// coercion table: strings/bytes pass through (as UTF-8/raw respectively),
// scalars stringify, composites are JSON-encoded.
func (v Value) ToBytes() ([]byte, error) {
	switch v.kind {
	case KindString:
		return []byte(v.s), nil
	case KindBytes:
		return v.by, nil
	default:
		s, err := v.ToDisplayString()
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
}

// ToDisplayString renders the value as a human string: strings pass
// through, bytes must be valid UTF-8 (else InvalidUtf8), numbers/bools use
// their canonical textual form, null is empty, arrays/objects are
// JSON-encoded.
func (v Value) ToDisplayString() (string, error) {
	switch v.kind {
	case KindNull:
		return "", nil
	case KindBoolean:
		return strconv.FormatBool(v.b), nil
	case KindInteger:
		return strconv.FormatInt(v.i, 10), nil
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64), nil
	case KindString:
		return v.s, nil
	case KindBytes:
		if !isValidUTF8(v.by) {
			return "", &Error{Kind: KindErrInvalidUTF8, Message: "bytes value is not valid UTF-8"}
		}
		return string(v.by), nil
	case KindArray, KindObject:
		j, err := v.ToJSON()
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(j)
		if err != nil {
			return "", fmt.Errorf("encoding value as JSON: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// ToJSON converts the value into a plain `any` tree suitable for
// encoding/json or jsonpath evaluation (map[string]any / []any / scalars).
func (v Value) ToJSON() (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBoolean:
		return v.b, nil
	case KindInteger:
		return v.i, nil
	case KindFloat:
		return v.f, nil
	case KindString:
		return v.s, nil
	case KindBytes:
		// Bytes always convert to a JSON array of integers, one per byte,
		// so the conversion round-trips through a JSON-only channel
		// without ever failing on non-UTF-8 content.
		out := make([]any, len(v.by))
		for i, b := range v.by {
			out[i] = int64(b)
		}
		return out, nil
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			j, err := e.ToJSON()
			if err != nil {
				return nil, err
			}
			out[i] = j
		}
		return out, nil
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.Keys() {
			e, _ := v.obj.Get(k)
			j, err := e.ToJSON()
			if err != nil {
				return nil, err
			}
			out[k] = j
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// FromJSON converts a decoded JSON tree (as produced by encoding/json with
// UseNumber, or plain map[string]any/[]any/scalars) into a Value.
func FromJSON(j any) Value {
	switch t := j.(type) {
	case nil:
		return NewNull()
	case bool:
		return NewBool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return NewInt(i)
		}
		f, _ := t.Float64()
		return NewFloat(f)
	case float64:
		return NewFloat(t)
	case string:
		return NewString(t)
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = FromJSON(e)
		}
		return NewArray(vs)
	case map[string]any:
		o := NewObject()
		for k, e := range t {
			o.Set(k, FromJSON(e))
		}
		return NewObjectValue(o)
	default:
		return NewString(fmt.Sprintf("%v", t))
	}
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}
