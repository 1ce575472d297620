package operation

import (
	"context"

	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

// Reduce hands each maximal run of rows with equal Key values to Reducer.
// The input must already be grouped by Key; Reduce does not sort. With an
// empty Key the whole input is one group.
type Reduce struct {
	Reducer Reducer
	Key     record.Key
	// CheckGrouping makes the stage fail with GROUPING_VIOLATION when a key
	// reappears after a different one. It keeps every seen key in memory.
	CheckGrouping bool
}

// Transform groups rows lazily; the reducer runs once per group when the
// group's end is reached.
func (r Reduce) Transform(rows stream.Iterator) stream.Iterator {
	check := checkNone
	if r.CheckGrouping {
		check = checkUnique
	}
	return &reduceIter{
		groups:  newGroupScanner(rows, r.Key, "reduce", check),
		reducer: r.Reducer,
		key:     r.Key,
	}
}

type reduceIter struct {
	groups  *groupScanner
	reducer Reducer
	key     record.Key
	pending []record.Record
}

func (it *reduceIter) Next(ctx context.Context) (record.Record, bool, error) {
	for len(it.pending) == 0 {
		g, ok, err := it.groups.next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		out, err := it.reducer.Reduce(ctx, it.key, g.rows)
		if err != nil {
			return nil, false, err
		}
		it.pending = out
	}
	row := it.pending[0]
	it.pending = it.pending[1:]
	return row, true, nil
}

func (it *reduceIter) Close() error { return it.groups.Close() }
