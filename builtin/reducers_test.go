package builtin

import (
	"context"
	"testing"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
)

func reduce(t *testing.T, r operation.Reducer, key record.Key, group []record.Record) []record.Record {
	t.Helper()
	out, err := r.Reduce(context.Background(), key, group)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestFirst(t *testing.T) {
	group := rows(map[string]any{"k": 1, "v": "a"}, map[string]any{"k": 1, "v": "b"})
	assertRows(t, reduce(t, First(), record.Key{"k"}, group), group[:1])
}

func TestTopN(t *testing.T) {
	group := rows(
		map[string]any{"id": 1, "score": 3},
		map[string]any{"id": 2, "score": 5},
		map[string]any{"id": 3, "score": 3},
		map[string]any{"id": 4, "score": 1},
	)
	got := reduce(t, TopN("score", 3), nil, group)
	assertRows(t, got, rows(
		map[string]any{"id": 2, "score": 5},
		map[string]any{"id": 1, "score": 3},
		map[string]any{"id": 3, "score": 3},
	))

	got = reduce(t, TopN("score", 10), nil, group)
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(got))
	}
}

func TestTopN_MixedNumbers(t *testing.T) {
	group := rows(map[string]any{"s": 1}, map[string]any{"s": 1.5})
	got := reduce(t, TopN("s", 1), nil, group)
	assertRows(t, got, rows(map[string]any{"s": 1.5}))
}

func TestTopN_Errors(t *testing.T) {
	_, err := TopN("s", 1).Reduce(context.Background(), nil, rows(map[string]any{"x": 1}))
	if !errors.Is(err, errors.ErrCodeMissingField) {
		t.Fatalf("expected MISSING_FIELD, got %v", err)
	}
	_, err = TopN("s", 1).Reduce(context.Background(), nil, rows(map[string]any{"s": 1}, map[string]any{"s": "a"}))
	if !errors.Is(err, errors.ErrCodeTypeMismatch) {
		t.Fatalf("expected TYPE_MISMATCH, got %v", err)
	}
}

func TestTermFrequency(t *testing.T) {
	group := rows(
		map[string]any{"doc": 1, "text": "hello", "n": 1},
		map[string]any{"doc": 1, "text": "little", "n": 2},
		map[string]any{"doc": 1, "text": "hello", "n": 3},
		map[string]any{"doc": 1, "text": "world", "n": 4},
	)
	got := reduce(t, TermFrequency("text", "tf"), record.Key{"doc"}, group)
	assertRows(t, got, rows(
		map[string]any{"doc": 1, "text": "hello", "tf": 0.5},
		map[string]any{"doc": 1, "text": "little", "tf": 0.25},
		map[string]any{"doc": 1, "text": "world", "tf": 0.25},
	))
}

func TestCount(t *testing.T) {
	group := rows(map[string]any{"w": "a", "x": 1}, map[string]any{"w": "a", "x": 2})
	got := reduce(t, Count("count"), record.Key{"w"}, group)
	assertRows(t, got, rows(map[string]any{"w": "a", "count": 2}))

	got = reduce(t, Count("n"), nil, group)
	assertRows(t, got, rows(map[string]any{"n": 2}))
}

func TestSum(t *testing.T) {
	tests := []struct {
		name  string
		group []record.Record
		want  record.Value
	}{
		{"ints", rows(map[string]any{"k": 1, "v": 2}, map[string]any{"k": 1, "v": 3}), record.Int(5)},
		{"float promotes", rows(map[string]any{"k": 1, "v": 2}, map[string]any{"k": 1, "v": 0.5}), record.Float(2.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reduce(t, Sum("v"), record.Key{"k"}, tt.group)
			want := record.Record{"k": record.Int(1), "v": tt.want}
			if len(got) != 1 || !got[0].Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestSum_NonNumeric(t *testing.T) {
	_, err := Sum("v").Reduce(context.Background(), nil, rows(map[string]any{"v": "x"}))
	if !errors.Is(err, errors.ErrCodeTypeMismatch) {
		t.Fatalf("expected TYPE_MISMATCH, got %v", err)
	}
}
