package stream

import (
	"context"

	"go.uber.org/multierr"

	"github.com/kbukum/compgraph/record"
)

// FlatMap replaces each row with the rows fn returns for it, in order.
func FlatMap(src Iterator, fn func(context.Context, record.Record) ([]record.Record, error)) Iterator {
	return &flatMapIter{source: src, fn: fn}
}

// Filter keeps only rows that satisfy the predicate.
func Filter(src Iterator, fn func(record.Record) bool) Iterator {
	return &filterIter{source: src, fn: fn}
}

// Tap calls fn as a side-effect for each row, then passes the row through unchanged.
func Tap(src Iterator, fn func(context.Context, record.Record) error) Iterator {
	return &tapIter{source: src, fn: fn}
}

// OnClose calls fn once after src is closed, with the error Close returned.
func OnClose(src Iterator, fn func(error) error) Iterator {
	return &onCloseIter{Iterator: src, fn: fn}
}

// Concat yields all rows of each iterator in turn.
func Concat(iters ...Iterator) Iterator {
	return &concatIter{iters: iters}
}

// --- Iterator implementations ---

type flatMapIter struct {
	source  Iterator
	fn      func(context.Context, record.Record) ([]record.Record, error)
	pending []record.Record
}

func (it *flatMapIter) Next(ctx context.Context) (record.Record, bool, error) {
	for len(it.pending) == 0 {
		in, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		out, err := it.fn(ctx, in)
		if err != nil {
			return nil, false, err
		}
		it.pending = out
	}
	row := it.pending[0]
	it.pending = it.pending[1:]
	return row, true, nil
}

func (it *flatMapIter) Close() error { return it.source.Close() }

type filterIter struct {
	source Iterator
	fn     func(record.Record) bool
}

func (it *filterIter) Next(ctx context.Context) (record.Record, bool, error) {
	for {
		row, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		if it.fn(row) {
			return row, true, nil
		}
	}
}

func (it *filterIter) Close() error { return it.source.Close() }

type tapIter struct {
	source Iterator
	fn     func(context.Context, record.Record) error
}

func (it *tapIter) Next(ctx context.Context) (record.Record, bool, error) {
	row, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return row, ok, err
	}
	if err := it.fn(ctx, row); err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (it *tapIter) Close() error { return it.source.Close() }

type onCloseIter struct {
	Iterator
	fn   func(error) error
	done bool
}

func (it *onCloseIter) Close() error {
	err := it.Iterator.Close()
	if it.done {
		return err
	}
	it.done = true
	return it.fn(err)
}

type concatIter struct {
	iters []Iterator
	index int
}

func (it *concatIter) Next(ctx context.Context) (record.Record, bool, error) {
	for it.index < len(it.iters) {
		row, ok, err := it.iters[it.index].Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return row, true, nil
		}
		it.index++
	}
	return nil, false, nil
}

func (it *concatIter) Close() error {
	var err error
	for _, iter := range it.iters {
		err = multierr.Append(err, iter.Close())
	}
	return err
}
