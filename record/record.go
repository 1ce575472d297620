package record

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/compgraph/errors"
)

// Record maps field names to values.
type Record map[string]Value

// From converts a native map into a Record.
func From(m map[string]any) (Record, error) {
	r := make(Record, len(m))
	for k, x := range m {
		v, err := Of(x)
		if err != nil {
			return nil, err
		}
		r[k] = v
	}
	return r, nil
}

// MustFrom is like From but panics on unsupported values.
func MustFrom(m map[string]any) Record {
	r, err := From(m)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the value of field and whether the field is present.
func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	return v, ok
}

// Field returns the value of field or a MISSING_FIELD error.
func (r Record) Field(field string) (Value, error) {
	v, ok := r[field]
	if !ok {
		return Value{}, errors.MissingField(field)
	}
	return v, nil
}

// Has reports whether field is present.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// With returns a copy of r with field set to v.
func (r Record) With(field string, v Value) Record {
	out := make(Record, len(r)+1)
	for k, e := range r {
		out[k] = e
	}
	out[field] = v
	return out
}

// Without returns a copy of r without the given fields.
func (r Record) Without(fields ...string) Record {
	out := r.Clone()
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Fields returns the field names of r in ascending order.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether r and o hold the same fields with equal values.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Native converts r into a map of native Go values.
func (r Record) Native() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}

// String renders r with fields in ascending order.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(k))
		b.WriteString(": ")
		b.WriteString(r[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

// EqualRows reports whether two record slices hold equal records in the same order.
func EqualRows(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
