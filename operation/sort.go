package operation

import (
	"context"
	"slices"

	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

// Sort orders rows by Key in ascending order. The sort is stable: rows with
// equal keys keep their input order.
type Sort struct {
	Key record.Key
}

// Transform buffers the whole input on the first pull, then yields it in order.
func (s Sort) Transform(rows stream.Iterator) stream.Iterator {
	return &sortIter{source: rows, key: s.Key}
}

type keyedRow struct {
	key record.Tuple
	row record.Record
}

type sortIter struct {
	source stream.Iterator
	key    record.Key
	rows   []keyedRow
	loaded bool
	index  int
}

func (it *sortIter) Next(ctx context.Context) (record.Record, bool, error) {
	if !it.loaded {
		if err := it.load(ctx); err != nil {
			return nil, false, err
		}
		it.loaded = true
	}
	if it.index >= len(it.rows) {
		return nil, false, nil
	}
	row := it.rows[it.index].row
	it.rows[it.index] = keyedRow{}
	it.index++
	return row, true, nil
}

func (it *sortIter) load(ctx context.Context) error {
	for {
		row, ok, err := it.source.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		k, err := it.key.Extract(row)
		if err != nil {
			return err
		}
		it.rows = append(it.rows, keyedRow{key: k, row: row})
	}

	var cmpErr error
	slices.SortStableFunc(it.rows, func(a, b keyedRow) int {
		if cmpErr != nil {
			return 0
		}
		c, err := it.key.Compare(a.key, b.key)
		if err != nil {
			cmpErr = err
			return 0
		}
		return c
	})
	return cmpErr
}

func (it *sortIter) Close() error {
	it.rows = nil
	return it.source.Close()
}
