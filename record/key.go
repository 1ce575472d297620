package record

import (
	"strings"

	"github.com/kbukum/compgraph/errors"
)

// Key is an ordered list of field names used for sorting, grouping and joining.
type Key []string

// Tuple holds the values of a Key's fields for one row.
type Tuple []Value

// Extract returns the key tuple of r. A missing field is a MISSING_FIELD error.
func (k Key) Extract(r Record) (Tuple, error) {
	t := make(Tuple, len(k))
	for i, f := range k {
		v, ok := r[f]
		if !ok {
			return nil, errors.MissingField(f)
		}
		t[i] = v
	}
	return t, nil
}

// Compare orders two tuples lexicographically over the key fields.
// Values of different kinds in one field are a TYPE_MISMATCH error.
func (k Key) Compare(a, b Tuple) (int, error) {
	for i := range k {
		c, ok := Compare(a[i], b[i])
		if !ok {
			return 0, errors.TypeMismatch(k[i], a[i].Kind().String(), b[i].Kind().String())
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// Contains reports whether field is one of the key fields.
func (k Key) Contains(field string) bool {
	for _, f := range k {
		if f == field {
			return true
		}
	}
	return false
}

func (k Key) String() string {
	return "[" + strings.Join(k, ", ") + "]"
}

// Equal reports whether t and o hold equal values.
func (t Tuple) Equal(o Tuple) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !t[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Fingerprint returns a string that is equal for equal tuples.
func (t Tuple) Fingerprint() string {
	var b strings.Builder
	for _, v := range t {
		b.WriteString(v.Kind().String())
		b.WriteByte(':')
		b.WriteString(v.String())
		b.WriteByte(0)
	}
	return b.String()
}
