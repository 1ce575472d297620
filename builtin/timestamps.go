package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
)

// TimestampLayout is the layout of timestamp columns. A fractional second
// part after the seconds is accepted when parsing.
const TimestampLayout = "20060102T150405"

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ParseTimestamp parses a YYYYMMDDTHHMMSS[.ffffff] timestamp in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// timestamp reads column as a timestamp. ok is false when the column is
// missing, not a string or not parseable.
func timestamp(row record.Record, column string) (t time.Time, ok bool) {
	v, present := row.Get(column)
	if !present {
		return time.Time{}, false
	}
	s, isString := v.AsString()
	if !isString {
		return time.Time{}, false
	}
	t, err := ParseTimestamp(s)
	return t, err == nil
}

// Hour stores the hour of the timestamp in column. Rows whose timestamp is
// missing or unparseable pass through without result.
func Hour(column, result string) operation.Mapper {
	return timeMapper(column, result, func(t time.Time) record.Value {
		return record.Int(int64(t.Hour()))
	})
}

// Weekday stores the weekday of the timestamp in column, Monday being 0.
func Weekday(column, result string) operation.Mapper {
	return timeMapper(column, result, func(t time.Time) record.Value {
		return record.Int(int64((t.Weekday() + 6) % 7))
	})
}

func timeMapper(column, result string, fn func(time.Time) record.Value) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		t, ok := timestamp(row, column)
		if !ok {
			return one(row)
		}
		return one(row.With(result, fn(t)))
	})
}

// TimeDifference stores end - start in seconds.
func TimeDifference(start, end, result string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		from, ok1 := timestamp(row, start)
		to, ok2 := timestamp(row, end)
		if !ok1 || !ok2 {
			return one(row)
		}
		return one(row.With(result, record.Float(to.Sub(from).Seconds())))
	})
}

// CalendarWeekday replaces a weekday number (Monday = 0) with its
// three-letter name.
func CalendarWeekday(column string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		v, ok := row.Get(column)
		if !ok {
			return one(row)
		}
		n, ok := v.AsInt()
		if !ok {
			return nil, errors.TypeMismatch(column, v.Kind().String(), record.KindInt.String())
		}
		if n < 0 || n >= int64(len(weekdayNames)) {
			return nil, fmt.Errorf("builtin: weekday %d out of range in field %q", n, column)
		}
		return one(row.With(column, record.String(weekdayNames[n])))
	})
}
