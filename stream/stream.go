package stream

import (
	"context"

	"github.com/kbukum/compgraph/record"
)

// Iterator provides pull-based sequential access to rows.
type Iterator interface {
	// Next returns the next row. Returns (nil, false, nil) when exhausted.
	Next(ctx context.Context) (record.Record, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Source opens fresh iterators over the same finite row sequence.
type Source interface {
	Open(ctx context.Context) (Iterator, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Iterator, error)

// Open calls f.
func (f SourceFunc) Open(ctx context.Context) (Iterator, error) { return f(ctx) }

// --- Constructors ---

// FromSlice returns an iterator over rows.
func FromSlice(rows []record.Record) Iterator {
	return &sliceIter{rows: rows}
}

// Empty returns an exhausted iterator.
func Empty() Iterator {
	return &sliceIter{}
}

// Rows returns a Source that yields rows on every Open.
func Rows(rows ...record.Record) Source {
	return SourceFunc(func(_ context.Context) (Iterator, error) {
		return FromSlice(rows), nil
	})
}

// FromFunc returns an iterator driven by next. close may be nil.
func FromFunc(next func(ctx context.Context) (record.Record, bool, error), close func() error) Iterator {
	return &funcIter{next: next, close: close}
}

// Lazy defers opening src until the first call to Next.
func Lazy(src Source) Iterator {
	return &lazyIter{src: src}
}

// --- Terminals ---

// Drain pulls all rows from it, passes each to sink, and closes it.
func Drain(ctx context.Context, it Iterator, sink func(context.Context, record.Record) error) (err error) {
	defer func() {
		if cerr := it.Close(); err == nil {
			err = cerr
		}
	}()
	for {
		row, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := sink(ctx, row); err != nil {
			return err
		}
	}
}

// Collect pulls all rows from it into a slice and closes it. Rows pulled
// before a failure are returned alongside the error.
func Collect(ctx context.Context, it Iterator) ([]record.Record, error) {
	var result []record.Record
	err := Drain(ctx, it, func(_ context.Context, row record.Record) error {
		result = append(result, row)
		return nil
	})
	return result, err
}

// CollectSource opens src and collects all of its rows.
func CollectSource(ctx context.Context, src Source) ([]record.Record, error) {
	it, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	return Collect(ctx, it)
}

// --- Internal iterators ---

type sliceIter struct {
	rows  []record.Record
	index int
}

func (it *sliceIter) Next(_ context.Context) (record.Record, bool, error) {
	if it.index >= len(it.rows) {
		return nil, false, nil
	}
	row := it.rows[it.index]
	it.index++
	return row, true, nil
}

func (it *sliceIter) Close() error { return nil }

type funcIter struct {
	next  func(ctx context.Context) (record.Record, bool, error)
	close func() error
}

func (it *funcIter) Next(ctx context.Context) (record.Record, bool, error) {
	return it.next(ctx)
}

func (it *funcIter) Close() error {
	if it.close != nil {
		return it.close()
	}
	return nil
}

type lazyIter struct {
	src    Source
	inner  Iterator
	closed bool
}

func (it *lazyIter) Next(ctx context.Context) (record.Record, bool, error) {
	if it.closed {
		return nil, false, nil
	}
	if it.inner == nil {
		inner, err := it.src.Open(ctx)
		if err != nil {
			return nil, false, err
		}
		it.inner = inner
	}
	return it.inner.Next(ctx)
}

func (it *lazyIter) Close() error {
	it.closed = true
	if it.inner != nil {
		return it.inner.Close()
	}
	return nil
}
