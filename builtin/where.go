package builtin

import (
	"context"
	"fmt"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
)

// Comparison is a Where operator.
type Comparison string

const (
	Eq Comparison = "=="
	Ne Comparison = "!="
	Lt Comparison = "<"
	Le Comparison = "<="
	Gt Comparison = ">"
	Ge Comparison = ">="
	// LenGt and LenGe compare the length of a string or list column.
	LenGt Comparison = "len>"
	LenGe Comparison = "len>="
)

func (c Comparison) holds(cmp int) bool {
	switch c {
	case Eq:
		return cmp == 0
	case Ne:
		return cmp != 0
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	case Gt, LenGt:
		return cmp > 0
	case Ge, LenGe:
		return cmp >= 0
	}
	return false
}

func (c Comparison) valid() bool {
	switch c {
	case Eq, Ne, Lt, Le, Gt, Ge, LenGt, LenGe:
		return true
	}
	return false
}

// Where keeps rows whose column compares to value with op. Rows without
// the column are dropped. Integers and floats compare numerically.
func Where(column string, op Comparison, value record.Value) (operation.Mapper, error) {
	if !op.valid() {
		return nil, errors.InvalidConfig(fmt.Sprintf("unknown comparison %q", op))
	}
	if op == LenGt || op == LenGe {
		if _, ok := value.AsInt(); !ok {
			return nil, errors.InvalidConfig(fmt.Sprintf("%s needs an integer operand", op))
		}
	}
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		v, ok := row.Get(column)
		if !ok {
			return nil, nil
		}
		if op == LenGt || op == LenGe {
			v = length(v)
		}
		cmp, err := compareValues(column, v, value)
		if err != nil {
			return nil, err
		}
		if !op.holds(cmp) {
			return nil, nil
		}
		return one(row)
	}), nil
}

func length(v record.Value) record.Value {
	if s, ok := v.AsString(); ok {
		return record.Int(int64(len([]rune(s))))
	}
	if l, ok := v.AsList(); ok {
		return record.Int(int64(len(l)))
	}
	return v
}

// compareValues orders a and b, promoting integers to floats when the
// kinds are mixed.
func compareValues(field string, a, b record.Value) (int, error) {
	if a.Kind() != b.Kind() {
		af, ok1 := a.Number()
		bf, ok2 := b.Number()
		if ok1 && ok2 {
			a, b = record.Float(af), record.Float(bf)
		}
	}
	c, ok := record.Compare(a, b)
	if !ok {
		return 0, errors.TypeMismatch(field, a.Kind().String(), b.Kind().String())
	}
	return c, nil
}
