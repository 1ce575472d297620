package plan

import (
	"fmt"
	"math"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/record"
)

// Args holds the decoded arguments of one stage.
type Args map[string]any

func argError(name, want string, got any) error {
	return errors.InvalidConfig(fmt.Sprintf("argument %q must be %s, got %T", name, want, got)).
		WithDetail("argument", name)
}

func missingArg(name string) error {
	return errors.InvalidConfig(fmt.Sprintf("argument %q is required", name)).WithDetail("argument", name)
}

// String returns a required string argument.
func (a Args) String(name string) (string, error) {
	x, ok := a[name]
	if !ok {
		return "", missingArg(name)
	}
	s, ok := x.(string)
	if !ok {
		return "", argError(name, "a string", x)
	}
	return s, nil
}

// StringOr returns a string argument or def when it is absent.
func (a Args) StringOr(name, def string) (string, error) {
	if _, ok := a[name]; !ok {
		return def, nil
	}
	return a.String(name)
}

// Strings returns a required list of strings.
func (a Args) Strings(name string) ([]string, error) {
	x, ok := a[name]
	if !ok {
		return nil, missingArg(name)
	}
	switch t := x.(type) {
	case []string:
		return t, nil
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, argError(name, "a list of strings", x)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, argError(name, "a list of strings", x)
}

// Int returns a required integer argument.
func (a Args) Int(name string) (int, error) {
	x, ok := a[name]
	if !ok {
		return 0, missingArg(name)
	}
	switch t := x.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t == math.Trunc(t) {
			return int(t), nil
		}
	}
	return 0, argError(name, "an integer", x)
}

// Float returns a required numeric argument.
func (a Args) Float(name string) (float64, error) {
	x, ok := a[name]
	if !ok {
		return 0, missingArg(name)
	}
	switch t := x.(type) {
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	}
	return 0, argError(name, "a number", x)
}

// Value returns a required argument converted to a record value.
func (a Args) Value(name string) (record.Value, error) {
	x, ok := a[name]
	if !ok {
		return record.Value{}, missingArg(name)
	}
	v, err := record.Of(x)
	if err != nil {
		return record.Value{}, argError(name, "a scalar or list", x)
	}
	return v, nil
}
