package operation

import (
	"context"

	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

// Operation turns a lazy row sequence into another lazy row sequence.
type Operation interface {
	Transform(rows stream.Iterator) stream.Iterator
}

// Mapper transforms one row into zero, one or many rows.
// Implementations must not modify the input row.
type Mapper interface {
	Map(ctx context.Context, row record.Record) ([]record.Record, error)
}

// MapperFunc adapts a function to Mapper.
type MapperFunc func(ctx context.Context, row record.Record) ([]record.Record, error)

// Map calls f.
func (f MapperFunc) Map(ctx context.Context, row record.Record) ([]record.Record, error) {
	return f(ctx, row)
}

// Reducer summarizes one group of key-equal rows into zero or more rows.
// rows is never empty.
type Reducer interface {
	Reduce(ctx context.Context, key record.Key, rows []record.Record) ([]record.Record, error)
}

// ReducerFunc adapts a function to Reducer.
type ReducerFunc func(ctx context.Context, key record.Key, rows []record.Record) ([]record.Record, error)

// Reduce calls f.
func (f ReducerFunc) Reduce(ctx context.Context, key record.Key, rows []record.Record) ([]record.Record, error) {
	return f(ctx, key, rows)
}

// Map is the row-wise stage.
type Map struct {
	Mapper Mapper
}

// Transform applies the mapper to every row in order.
func (m Map) Transform(rows stream.Iterator) stream.Iterator {
	return stream.FlatMap(rows, m.Mapper.Map)
}

// Filter is the row-wise stage that keeps the rows Keep accepts.
type Filter struct {
	Keep func(record.Record) bool
}

// Transform drops every row Keep rejects, preserving order.
func (f Filter) Transform(rows stream.Iterator) stream.Iterator {
	return stream.Filter(rows, f.Keep)
}
