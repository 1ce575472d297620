package graph

import (
	"fmt"
	"slices"
	"sort"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/rowio"
	"github.com/kbukum/compgraph/stream"
)

// Bindings maps input names to the sources that feed them.
type Bindings map[string]stream.Source

// Graph is an immutable plan: an input followed by an ordered stage list.
type Graph struct {
	name   string
	input  string
	source stream.Source
	stages []stage
	err    error
}

// stage is one step of a Graph. apply builds the stage's iterator for a
// single run; it must not retain state between calls.
type stage struct {
	name  string
	apply func(rs *runState, path string, in stream.Iterator) stream.Iterator
	// right is the sub-graph read by a join stage.
	right *Graph
}

// FromIter starts a graph reading the input bound to name at run time.
func FromIter(name string) *Graph {
	g := &Graph{name: "graph", input: name}
	if name == "" {
		g.err = errors.InvalidConfig("input name must not be empty")
	}
	return g
}

// FromSource starts a graph reading src on every run.
func FromSource(src stream.Source) *Graph {
	g := &Graph{name: "graph", source: src}
	if src == nil {
		g.err = errors.InvalidConfig("source must not be nil")
	}
	return g
}

// FromFile starts a graph reading path line by line through parser.
// The file is opened on every run.
func FromFile(path string, parser rowio.LineParser) *Graph {
	return FromSource(rowio.Lines(path, parser))
}

// Named returns a copy of g with a name used in logs and traces.
func (g *Graph) Named(name string) *Graph {
	out := *g
	out.name = name
	return &out
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Err returns the first construction error, if any.
func (g *Graph) Err() error { return g.err }

// Inputs returns the sorted input names this graph and its join
// sub-graphs read from.
func (g *Graph) Inputs() []string {
	set := make(map[string]struct{})
	g.collectInputs(set)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Graph) collectInputs(set map[string]struct{}) {
	if g.input != "" {
		set[g.input] = struct{}{}
	}
	for _, s := range g.stages {
		if s.right != nil {
			s.right.collectInputs(set)
		}
	}
}

// Stages returns the stage names in order.
func (g *Graph) Stages() []string {
	names := make([]string, len(g.stages))
	for i, s := range g.stages {
		names[i] = s.name
	}
	return names
}

// with returns a copy of g with s appended. The stage slice is copied so
// that graphs sharing a prefix never alias each other.
func (g *Graph) with(s stage, err error) *Graph {
	out := *g
	out.stages = append(slices.Clip(g.stages), s)
	if out.err == nil {
		out.err = err
	}
	return &out
}

// Apply appends an arbitrary operation under the given stage name.
func (g *Graph) Apply(name string, op operation.Operation) *Graph {
	var err error
	if op == nil {
		err = errors.InvalidConfig(fmt.Sprintf("stage %q has no operation", name))
	}
	return g.with(stage{
		name: name,
		apply: func(_ *runState, _ string, in stream.Iterator) stream.Iterator {
			return op.Transform(in)
		},
	}, err)
}

// Map appends a row-wise stage.
func (g *Graph) Map(m operation.Mapper) *Graph {
	var err error
	if m == nil {
		err = errors.InvalidConfig("map stage has no mapper")
	}
	op := operation.Map{Mapper: m}
	return g.with(stage{
		name: "map",
		apply: func(_ *runState, _ string, in stream.Iterator) stream.Iterator {
			return op.Transform(in)
		},
	}, err)
}

// Filter appends a stage keeping the rows keep accepts.
func (g *Graph) Filter(keep func(record.Record) bool) *Graph {
	var err error
	if keep == nil {
		err = errors.InvalidConfig("filter stage has no predicate")
	}
	op := operation.Filter{Keep: keep}
	return g.with(stage{
		name: "filter",
		apply: func(_ *runState, _ string, in stream.Iterator) stream.Iterator {
			return op.Transform(in)
		},
	}, err)
}

// Sort appends a stable sort by keys.
func (g *Graph) Sort(keys ...string) *Graph {
	key := record.Key(slices.Clone(keys))
	var err error
	if len(key) == 0 {
		err = errors.InvalidConfig("sort requires at least one key field")
	}
	op := operation.Sort{Key: key}
	return g.with(stage{
		name: "sort" + key.String(),
		apply: func(_ *runState, _ string, in stream.Iterator) stream.Iterator {
			return op.Transform(in)
		},
	}, err)
}

// Reduce appends a grouped stage over contiguous runs of rows with equal
// keys. The input must already be grouped, typically by a preceding Sort.
func (g *Graph) Reduce(r operation.Reducer, keys ...string) *Graph {
	key := record.Key(slices.Clone(keys))
	var err error
	if r == nil {
		err = errors.InvalidConfig("reduce stage has no reducer")
	}
	return g.with(stage{
		name: "reduce" + key.String(),
		apply: func(rs *runState, _ string, in stream.Iterator) stream.Iterator {
			op := operation.Reduce{Reducer: r, Key: key, CheckGrouping: rs.opts.checkGrouping}
			return op.Transform(in)
		},
	}, err)
}

// Join appends a merge join with other on keys. Both this graph's output
// and other's output must be sorted by keys. other runs independently with
// the same bindings.
func (g *Graph) Join(other *Graph, strategy operation.Strategy, keys []string, opts ...operation.JoinOption) *Graph {
	key := record.Key(slices.Clone(keys))
	j, err := operation.NewJoin(strategy, key, opts...)
	if err == nil && other == nil {
		err = errors.InvalidConfig("join requires a right graph")
	}
	if err == nil && other.err != nil {
		err = other.err
	}
	s := stage{
		name:  fmt.Sprintf("join %s%s", strategy, key),
		right: other,
	}
	if err == nil {
		s.apply = func(rs *runState, path string, in stream.Iterator) stream.Iterator {
			cfg := *j
			cfg.CheckOrder = cfg.CheckOrder || rs.opts.checkGrouping
			right := other.build(rs, path+"/right/")
			return cfg.Merge(in, right)
		}
	}
	return g.with(s, err)
}
