package operation

import (
	"context"
	"testing"

	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

func rows(ms ...map[string]any) []record.Record {
	out := make([]record.Record, len(ms))
	for i, m := range ms {
		out[i] = record.MustFrom(m)
	}
	return out
}

func collect(t *testing.T, it stream.Iterator) []record.Record {
	t.Helper()
	got, err := stream.Collect(context.Background(), it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

func assertRows(t *testing.T, got, want []record.Record) {
	t.Helper()
	if !record.EqualRows(got, want) {
		t.Errorf("got  %v\nwant %v", got, want)
	}
}

// countingIter counts rows pulled from its source.
type countingIter struct {
	stream.Iterator
	pulled int
	closed bool
}

func (c *countingIter) Next(ctx context.Context) (record.Record, bool, error) {
	row, ok, err := c.Iterator.Next(ctx)
	if ok {
		c.pulled++
	}
	return row, ok, err
}

func (c *countingIter) Close() error {
	c.closed = true
	return c.Iterator.Close()
}

var countReducer = ReducerFunc(func(_ context.Context, key record.Key, group []record.Record) ([]record.Record, error) {
	out := make(record.Record, len(key)+1)
	for _, f := range key {
		out[f] = group[0][f]
	}
	out["count"] = record.Int(int64(len(group)))
	return []record.Record{out}, nil
})
