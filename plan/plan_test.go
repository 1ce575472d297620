package plan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.RegisterMapper("tag", func(a Args) (operation.Mapper, error) {
		value, err := a.String("value")
		if err != nil {
			return nil, err
		}
		return operation.MapperFunc(func(_ context.Context, r record.Record) ([]record.Record, error) {
			return []record.Record{r.With("tag", record.String(value))}, nil
		}), nil
	})
	reg.RegisterReducer("count", func(a Args) (operation.Reducer, error) {
		return operation.ReducerFunc(func(_ context.Context, key record.Key, rows []record.Record) ([]record.Record, error) {
			out := record.Record{"n": record.Int(int64(len(rows)))}
			for _, f := range key {
				out[f] = rows[0][f]
			}
			return []record.Record{out}, nil
		}), nil
	})
	return reg
}

func runPlan(t *testing.T, g *graph.Graph, b graph.Bindings) []record.Record {
	t.Helper()
	it, err := g.Run(context.Background(), b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := stream.Collect(context.Background(), it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

func rows(ms ...map[string]any) []record.Record {
	out := make([]record.Record, len(ms))
	for i, m := range ms {
		out[i] = record.MustFrom(m)
	}
	return out
}

const joinPlan = `
name: users-with-orders
output: joined
graphs:
  users:
    input: users
    stages:
      - sort: [id]
  orders:
    input: orders
    stages:
      - sort: [id]
      - reduce: count
        keys: [id]
  joined:
    from: users
    stages:
      - join: orders
        keys: [id]
        strategy: left
      - map: tag
        args: {value: done}
`

func TestResolve_Join(t *testing.T) {
	def, err := Parse([]byte(joinPlan))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := def.Inputs(); strings.Join(got, ",") != "orders,users" {
		t.Errorf("inputs = %v", got)
	}
	g, err := def.Resolve(testRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Name() != "users-with-orders" {
		t.Errorf("name = %q", g.Name())
	}
	got := runPlan(t, g, graph.Bindings{
		"users":  stream.Rows(rows(map[string]any{"id": 2, "name": "b"}, map[string]any{"id": 1, "name": "a"})...),
		"orders": stream.Rows(rows(map[string]any{"id": 1}, map[string]any{"id": 1})...),
	})
	want := rows(
		map[string]any{"id": 1, "name": "a", "n": 2, "tag": "done"},
		map[string]any{"id": 2, "name": "b", "n": nil, "tag": "done"},
	)
	if !record.EqualRows(got, want) {
		t.Errorf("got  %v\nwant %v", got, want)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code errors.ErrorCode
	}{
		{
			name: "unknown mapper",
			yaml: "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - map: nope\n",
			code: errors.ErrCodeUnknownOperation,
		},
		{
			name: "unknown reducer",
			yaml: "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - reduce: nope\n",
			code: errors.ErrCodeUnknownOperation,
		},
		{
			name: "cycle through from",
			yaml: "name: p\noutput: a\ngraphs:\n  a:\n    from: b\n  b:\n    from: a\n",
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "cycle through join",
			yaml: "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - join: a\n        keys: [k]\n",
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "bad factory args",
			yaml: "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - map: tag\n",
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "equal suffixes",
			yaml: "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - join: b\n        suffixes: [_x, _x]\n  b:\n    input: y\n",
			code: errors.ErrCodeInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			_, err = def.Resolve(testRegistry())
			if !errors.Is(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestResolve_CycleMessage(t *testing.T) {
	def, err := Parse([]byte("name: p\noutput: a\ngraphs:\n  a:\n    from: b\n  b:\n    from: a\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = def.Resolve(testRegistry())
	if err == nil || !strings.Contains(err.Error(), "a -> b -> a") {
		t.Fatalf("expected cycle path in error, got %v", err)
	}
}

func TestResolve_DefaultSuffixes(t *testing.T) {
	def, err := Parse([]byte(`
name: p
output: a
graphs:
  a:
    input: x
    stages:
      - join: b
        keys: [k]
  b:
    input: y
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := def.Resolve(testRegistry(), WithJoinSuffixes("_l", "_r"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := runPlan(t, g, graph.Bindings{
		"x": stream.Rows(rows(map[string]any{"k": 1, "v": "a"})...),
		"y": stream.Rows(rows(map[string]any{"k": 1, "v": "b"})...),
	})
	want := rows(map[string]any{"k": 1, "v_l": "a", "v_r": "b"})
	if !record.EqualRows(got, want) {
		t.Errorf("got  %v\nwant %v", got, want)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code errors.ErrorCode
	}{
		{"empty", "", errors.ErrCodeInvalidConfig},
		{"not yaml", "name: [", errors.ErrCodeInvalidFormat},
		{"unknown key", "name: p\noutput: a\nextra: 1\ngraphs:\n  a:\n    input: x\n", errors.ErrCodeInvalidFormat},
		{"missing name", "output: a\ngraphs:\n  a:\n    input: x\n", errors.ErrCodeInvalidConfig},
		{"no graphs", "name: p\noutput: a\n", errors.ErrCodeInvalidConfig},
		{"undefined output", "name: p\noutput: z\ngraphs:\n  a:\n    input: x\n", errors.ErrCodeInvalidConfig},
		{"input and from", "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    from: b\n  b:\n    input: y\n", errors.ErrCodeInvalidConfig},
		{"neither input nor from", "name: p\noutput: a\ngraphs:\n  a:\n    stages:\n      - sort: [k]\n", errors.ErrCodeInvalidConfig},
		{"two kinds in one stage", "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - sort: [k]\n        map: m\n", errors.ErrCodeInvalidConfig},
		{"bad strategy", "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - join: a\n        strategy: cross\n", errors.ErrCodeInvalidConfig},
		{"one suffix", "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - join: a\n        suffixes: [_x]\n", errors.ErrCodeInvalidConfig},
		{"undefined join", "name: p\noutput: a\ngraphs:\n  a:\n    input: x\n    stages:\n      - join: z\n", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestParse_FieldDetails(t *testing.T) {
	_, err := Parse([]byte("output: a\ngraphs:\n  a:\n    input: x\n"))
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	fields, _ := appErr.Details["fields"].(map[string]string)
	if fields["name"] != "is required" {
		t.Errorf("fields = %v", fields)
	}
}

func TestLoadFileAndFind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.yml")
	if err := os.WriteFile(path, []byte(joinPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	def, err := Find("orders", t.TempDir(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Output != "joined" {
		t.Errorf("output = %q", def.Output)
	}
	if _, err := Find("missing", dir); err == nil {
		t.Fatal("expected error")
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestArgs(t *testing.T) {
	a := Args{"s": "x", "l": []any{"a", "b"}, "i": 3, "f": 1.5, "whole": 2.0}
	if s, err := a.String("s"); err != nil || s != "x" {
		t.Errorf("String = %q, %v", s, err)
	}
	if s, err := a.StringOr("nope", "def"); err != nil || s != "def" {
		t.Errorf("StringOr = %q, %v", s, err)
	}
	if l, err := a.Strings("l"); err != nil || strings.Join(l, ",") != "a,b" {
		t.Errorf("Strings = %v, %v", l, err)
	}
	if i, err := a.Int("whole"); err != nil || i != 2 {
		t.Errorf("Int = %d, %v", i, err)
	}
	if _, err := a.Int("f"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Int(1.5) err = %v", err)
	}
	if f, err := a.Float("i"); err != nil || f != 3 {
		t.Errorf("Float = %v, %v", f, err)
	}
	if v, err := a.Value("l"); err != nil || v.Kind() != record.KindList {
		t.Errorf("Value = %v, %v", v, err)
	}
	if _, err := a.String("missing"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing err = %v", err)
	}
}

func TestRegistry_Lists(t *testing.T) {
	reg := testRegistry()
	if got := reg.Mappers(); strings.Join(got, ",") != "tag" {
		t.Errorf("mappers = %v", got)
	}
	if got := reg.Reducers(); strings.Join(got, ",") != "count" {
		t.Errorf("reducers = %v", got)
	}
}
