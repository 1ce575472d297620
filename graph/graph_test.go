package graph

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/observability"
	"github.com/kbukum/compgraph/operation"
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

// countingSource records how often it was opened and closed.
type countingSource struct {
	rows   []record.Record
	opened atomic.Int32
	closed atomic.Int32
}

func (s *countingSource) Open(_ context.Context) (stream.Iterator, error) {
	s.opened.Add(1)
	return stream.FromFunc(stream.FromSlice(s.rows).Next, func() error {
		s.closed.Add(1)
		return nil
	}), nil
}

func run(t *testing.T, g *Graph, b Bindings, opts ...RunOption) []record.Record {
	t.Helper()
	it, err := g.Run(context.Background(), b, append([]RunOption{WithTelemetry(observability.Noop())}, opts...)...)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := stream.Collect(context.Background(), it)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	return got
}

func assertRows(t *testing.T, got, want []record.Record) {
	t.Helper()
	if !record.EqualRows(got, want) {
		t.Errorf("got  %v\nwant %v", got, want)
	}
}

var splitWords = operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
	text, err := row.Field("text")
	if err != nil {
		return nil, err
	}
	s, _ := text.AsString()
	var out []record.Record
	for _, w := range strings.Fields(s) {
		out = append(out, record.Record{"word": record.String(w)})
	}
	return out, nil
})

var countRows = operation.ReducerFunc(func(_ context.Context, key record.Key, group []record.Record) ([]record.Record, error) {
	out := make(record.Record, len(key)+1)
	for _, f := range key {
		out[f] = group[0][f]
	}
	out["count"] = record.Int(int64(len(group)))
	return []record.Record{out}, nil
})

func tag(field, value string) operation.Mapper {
	return operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		return []record.Record{row.With(field, record.String(value))}, nil
	})
}

func wordCount() *Graph {
	return FromIter("docs").Map(splitWords).Sort("word").Reduce(countRows, "word")
}

func TestRun_WordCount(t *testing.T) {
	docs := stream.Rows(rows(
		map[string]any{"text": "b a"},
		map[string]any{"text": "a c a"},
	)...)
	got := run(t, wordCount(), Bindings{"docs": docs})
	assertRows(t, got, rows(
		map[string]any{"word": "a", "count": 3},
		map[string]any{"word": "b", "count": 1},
		map[string]any{"word": "c", "count": 1},
	))
}

func TestRun_BindingErrorBeforeAnyRow(t *testing.T) {
	other := &countingSource{}
	it, err := wordCount().Run(context.Background(), Bindings{"other": other})
	if !errors.Is(err, errors.ErrCodeBinding) {
		t.Fatalf("expected BINDING_ERROR, got %v", err)
	}
	if it != nil {
		t.Error("expected no iterator")
	}
	if other.opened.Load() != 0 {
		t.Error("no source should be opened")
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["input"] != "docs" {
		t.Errorf("expected input name in details, got %v", appErr.Details)
	}
}

func TestRun_BindingErrorForJoinInput(t *testing.T) {
	right := FromIter("names").Sort("id")
	g := FromIter("ids").Sort("id").Join(right, operation.Inner, []string{"id"})
	if got := g.Inputs(); len(got) != 2 || got[0] != "ids" || got[1] != "names" {
		t.Errorf("Inputs() = %v", got)
	}
	_, err := g.Run(context.Background(), Bindings{"ids": stream.Rows()})
	if !errors.Is(err, errors.ErrCodeBinding) || !strings.Contains(err.Error(), "names") {
		t.Errorf("expected binding error for names, got %v", err)
	}
}

func TestRun_SourcesOpenLazily(t *testing.T) {
	src := &countingSource{rows: rows(map[string]any{"text": "x"})}
	it, err := wordCount().Run(context.Background(), Bindings{"docs": src}, WithTelemetry(observability.Noop()))
	if err != nil {
		t.Fatal(err)
	}
	if src.opened.Load() != 0 {
		t.Fatal("source opened before the first pull")
	}
	if _, err := stream.Collect(context.Background(), it); err != nil {
		t.Fatal(err)
	}
	if src.opened.Load() != 1 || src.closed.Load() != 1 {
		t.Errorf("opened %d closed %d, want 1 and 1", src.opened.Load(), src.closed.Load())
	}
}

func TestRun_EarlyCloseReleasesSource(t *testing.T) {
	src := &countingSource{rows: rows(map[string]any{"n": 1}, map[string]any{"n": 2}, map[string]any{"n": 3})}
	it, err := FromIter("in").Map(tag("t", "x")).Run(context.Background(), Bindings{"in": src}, WithTelemetry(observability.Noop()))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := it.Next(context.Background()); !ok || err != nil {
		t.Fatalf("expected a row, got ok=%v err=%v", ok, err)
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if src.closed.Load() != 1 {
		t.Error("source not closed")
	}
}

func TestRun_RerunIsIndependent(t *testing.T) {
	g := wordCount()
	first := run(t, g, Bindings{"docs": stream.Rows(rows(map[string]any{"text": "a a"})...)})
	second := run(t, g, Bindings{"docs": stream.Rows(rows(map[string]any{"text": "b"})...)})
	assertRows(t, first, rows(map[string]any{"word": "a", "count": 2}))
	assertRows(t, second, rows(map[string]any{"word": "b", "count": 1}))
}

func TestRun_ConcurrentRuns(t *testing.T) {
	g := wordCount()
	var eg errgroup.Group
	results := make([][]record.Record, 8)
	for i := range results {
		eg.Go(func() error {
			text := strings.Repeat(fmt.Sprintf("w%d ", i), i+1)
			it, err := g.Run(context.Background(), Bindings{"docs": stream.Rows(record.Record{"text": record.String(text)})},
				WithTelemetry(observability.Noop()))
			if err != nil {
				return err
			}
			results[i], err = stream.Collect(context.Background(), it)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	for i, got := range results {
		want := rows(map[string]any{"word": fmt.Sprintf("w%d", i), "count": i + 1})
		assertRows(t, got, want)
	}
}

func TestGraph_Immutable(t *testing.T) {
	in := Bindings{"in": stream.Rows(rows(map[string]any{"k": 1})...)}
	base := FromIter("in").Map(tag("a", "1"))
	left := base.Map(tag("b", "left"))
	right := base.Map(tag("b", "right"))
	longer := left.Map(tag("c", "x"))

	assertRows(t, run(t, base, in), rows(map[string]any{"k": 1, "a": "1"}))
	assertRows(t, run(t, left, in), rows(map[string]any{"k": 1, "a": "1", "b": "left"}))
	assertRows(t, run(t, right, in), rows(map[string]any{"k": 1, "a": "1", "b": "right"}))
	assertRows(t, run(t, longer, in), rows(map[string]any{"k": 1, "a": "1", "b": "left", "c": "x"}))
	if len(base.Stages()) != 1 || len(left.Stages()) != 2 || len(longer.Stages()) != 3 {
		t.Errorf("unexpected stage counts %v %v %v", base.Stages(), left.Stages(), longer.Stages())
	}
}

func TestGraph_LeftJoin(t *testing.T) {
	users := FromIter("users").Sort("id")
	scores := FromIter("scores").Sort("id")
	g := users.Join(scores, operation.Left, []string{"id"})
	got := run(t, g, Bindings{
		"users":  stream.Rows(rows(map[string]any{"id": 2, "x": "b"}, map[string]any{"id": 1, "x": "a"})...),
		"scores": stream.Rows(rows(map[string]any{"id": 1, "y": "p"})...),
	})
	want := []record.Record{
		{"id": record.Int(1), "x": record.String("a"), "y": record.String("p")},
		{"id": record.Int(2), "x": record.String("b"), "y": record.Absent()},
	}
	assertRows(t, got, want)
}

func TestGraph_SelfJoinSharesBinding(t *testing.T) {
	src := &countingSource{rows: rows(map[string]any{"id": 1, "v": "a"}, map[string]any{"id": 2, "v": "b"})}
	g := FromIter("in")
	got := run(t, g.Join(g, operation.Inner, []string{"id"}), Bindings{"in": src})
	assertRows(t, got, rows(
		map[string]any{"id": 1, "v_1": "a", "v_2": "a"},
		map[string]any{"id": 2, "v_1": "b", "v_2": "b"},
	))
	if src.opened.Load() != 2 {
		t.Errorf("each side should open its own iterator, opened %d", src.opened.Load())
	}
}

func TestGraph_ConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		g    *Graph
	}{
		{"empty input name", FromIter("")},
		{"nil source", FromSource(nil)},
		{"sort without keys", FromIter("in").Sort()},
		{"equal suffixes", FromIter("in").Join(FromIter("in"), operation.Inner, []string{"k"}, operation.WithSuffixes("_x", "_x"))},
		{"broken right graph", FromIter("in").Join(FromIter("in").Sort(), operation.Inner, []string{"k"})},
		{"nil right graph", FromIter("in").Join(nil, operation.Full, []string{"k"})},
		{"nil mapper", FromIter("in").Map(nil)},
		{"nil filter", FromIter("in").Filter(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.g.Map(tag("later", "stage"))
			if !errors.Is(g.Err(), errors.ErrCodeInvalidConfig) {
				t.Fatalf("expected INVALID_CONFIG, got %v", g.Err())
			}
			if _, err := g.Run(context.Background(), Bindings{"in": stream.Rows()}); err != g.Err() {
				t.Errorf("Run should return the construction error, got %v", err)
			}
		})
	}
}

func TestRun_GroupingCheck(t *testing.T) {
	g := FromIter("in").Reduce(countRows, "k")
	in := Bindings{"in": stream.Rows(rows(map[string]any{"k": "a"}, map[string]any{"k": "b"}, map[string]any{"k": "a"})...)}

	if got := run(t, g, in); len(got) != 3 {
		t.Errorf("without the check every run is its own group, got %v", got)
	}

	it, err := g.Run(context.Background(), in, WithGroupingCheck(true), WithTelemetry(observability.Noop()))
	if err != nil {
		t.Fatal(err)
	}
	_, err = stream.Collect(context.Background(), it)
	if !errors.Is(err, errors.ErrCodeGroupingViolation) {
		t.Errorf("expected GROUPING_VIOLATION, got %v", err)
	}
}

func TestRun_JoinOrderCheck(t *testing.T) {
	g := FromIter("l").Join(FromIter("r"), operation.Full, []string{"k"})
	in := Bindings{
		"l": stream.Rows(rows(map[string]any{"k": 2}, map[string]any{"k": 1})...),
		"r": stream.Rows(rows(map[string]any{"k": 1})...),
	}
	it, err := g.Run(context.Background(), in, WithGroupingCheck(true), WithTelemetry(observability.Noop()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Collect(context.Background(), it); !errors.Is(err, errors.ErrCodeGroupingViolation) {
		t.Errorf("expected GROUPING_VIOLATION, got %v", err)
	}
}

func TestRun_MapperErrorPropagatesUnchanged(t *testing.T) {
	boom := stderrors.New("boom")
	fail := operation.MapperFunc(func(_ context.Context, row record.Record) ([]record.Record, error) {
		if n, _ := row["n"].AsInt(); n == 2 {
			return nil, boom
		}
		return []record.Record{row}, nil
	})
	it, err := FromIter("in").Map(fail).Run(context.Background(),
		Bindings{"in": stream.Rows(rows(map[string]any{"n": 1}, map[string]any{"n": 2})...)},
		WithTelemetry(observability.Noop()))
	if err != nil {
		t.Fatal(err)
	}
	got, err := stream.Collect(context.Background(), it)
	if err != boom {
		t.Errorf("expected the mapper's error unchanged, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected the row before the failure, got %v", got)
	}
}

func TestRun_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.txt")
	if err := os.WriteFile(path, []byte("a b\n\nb\n"), 0644); err != nil {
		t.Fatal(err)
	}
	parse := func(line []byte) (record.Record, error) {
		return record.Record{"text": record.String(string(line))}, nil
	}
	g := FromFile(path, parse).Map(splitWords).Sort("word").Reduce(countRows, "word")
	if len(g.Inputs()) != 0 {
		t.Errorf("file graphs need no bindings, got %v", g.Inputs())
	}
	assertRows(t, run(t, g, nil), rows(
		map[string]any{"word": "a", "count": 1},
		map[string]any{"word": "b", "count": 2},
	))
}

func TestRun_Filter(t *testing.T) {
	g := FromIter("in").Filter(func(r record.Record) bool { return r.Has("keep") })
	if g.Stages()[0] != "filter" {
		t.Errorf("unexpected stage names %v", g.Stages())
	}
	in := stream.Rows(rows(
		map[string]any{"keep": 1},
		map[string]any{"drop": 2},
		map[string]any{"keep": 3},
	)...)
	got := run(t, g, Bindings{"in": in})
	assertRows(t, got, rows(map[string]any{"keep": 1}, map[string]any{"keep": 3}))
}

func TestRun_Apply(t *testing.T) {
	op := operation.Sort{Key: record.Key{"k"}}
	g := FromIter("in").Apply("custom sort", op)
	if g.Stages()[0] != "custom sort" {
		t.Errorf("unexpected stage names %v", g.Stages())
	}
	got := run(t, g, Bindings{"in": stream.Rows(rows(map[string]any{"k": 2}, map[string]any{"k": 1})...)})
	assertRows(t, got, rows(map[string]any{"k": 1}, map[string]any{"k": 2}))
}

func TestRun_Telemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())
	tel, err := observability.NewTelemetry(observability.WithTracerProvider(tp))
	if err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, &logs, "test")

	g := wordCount().Named("word_count")
	it, err := g.Run(context.Background(), Bindings{"docs": stream.Rows(rows(map[string]any{"text": "a b"})...)},
		WithTelemetry(tel), WithLogger(log), WithRunID("run-7"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Collect(context.Background(), it); err != nil {
		t.Fatal(err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one run span, got %d", len(spans))
	}
	// input plus three stages
	if n := len(spans[0].Events()); n != 4 {
		t.Errorf("expected 4 stage events, got %d", n)
	}
	out := logs.String()
	for _, want := range []string{"graph run started", "graph run finished", `"run_id":"run-7"`, `"graph":"word_count"`, `"stage":"1:sort[word]"`, `"rows":1`, `"rows":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in logs:\n%s", want, out)
		}
	}
}
