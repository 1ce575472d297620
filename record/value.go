package record

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindInt
	KindFloat
	KindString
	KindList
	KindRecord
)

var kindNames = [...]string{
	KindAbsent: "absent",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindList:   "list",
	KindRecord: "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single field value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	list []Value
	rec  Record
}

// Absent returns the absence marker.
func Absent() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// List returns a list value holding vs.
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// Nested returns a value holding a nested record.
func Nested(r Record) Value { return Value{kind: KindRecord, rec: r} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the absence marker.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by v.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns the list held by v.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsRecord returns the nested record held by v.
func (v Value) AsRecord() (Record, bool) { return v.rec, v.kind == KindRecord }

// Number returns v as a float64 when it holds an integer or a float.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Of converts a native Go value into a Value. Supported inputs are nil,
// integers, floats, strings, Value, Record, []any, []Value and map[string]any.
func Of(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Absent(), nil
	case Value:
		return t, nil
	case Record:
		return Nested(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint32:
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []Value:
		return List(t...), nil
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			v, err := Of(e)
			if err != nil {
				return Value{}, err
			}
			vs[i] = v
		}
		return List(vs...), nil
	case map[string]any:
		r, err := From(t)
		if err != nil {
			return Value{}, err
		}
		return Nested(r), nil
	}
	return Value{}, fmt.Errorf("record: unsupported value type %T", x)
}

// MustOf is like Of but panics on unsupported input.
func MustOf(x any) Value {
	v, err := Of(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Interface converts v back into a native Go value.
// The absence marker becomes nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindRecord:
		return v.rec.Native()
	}
	return nil
}

// Equal reports whether v and o hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		return v.rec.Equal(o.rec)
	}
	return true
}

// Compare orders two values of the same kind. ok is false when the values
// are not comparable: different kinds, or nested records.
// NaN sorts before every other float and equals only NaN. Lists compare
// element by element, then by length.
func Compare(a, b Value) (c int, ok bool) {
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindAbsent:
		return 0, true
	case KindInt:
		return cmp.Compare(a.i, b.i), true
	case KindFloat:
		return cmp.Compare(a.f, b.f), true
	case KindString:
		return strings.Compare(a.s, b.s), true
	case KindList:
		n := min(len(a.list), len(b.list))
		for i := 0; i < n; i++ {
			c, ok := Compare(a.list[i], b.list[i])
			if !ok || c != 0 {
				return c, ok
			}
		}
		return cmp.Compare(len(a.list), len(b.list)), true
	}
	return 0, false
}

// String renders v for logs and test failures.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindRecord:
		return v.rec.String()
	}
	return "<absent>"
}
