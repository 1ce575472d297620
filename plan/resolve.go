package plan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/operation"
)

type resolveOptions struct {
	leftSuffix  string
	rightSuffix string
	checkOrder  bool
}

// ResolveOption configures Resolve.
type ResolveOption func(*resolveOptions)

// WithJoinSuffixes sets the collision suffixes for joins that do not set
// their own.
func WithJoinSuffixes(left, right string) ResolveOption {
	return func(o *resolveOptions) {
		o.leftSuffix = left
		o.rightSuffix = right
	}
}

// WithJoinOrderCheck enables the key order check on every join.
func WithJoinOrderCheck(enabled bool) ResolveOption {
	return func(o *resolveOptions) { o.checkOrder = enabled }
}

// Resolve builds the output graph of d, looking up operations in registry.
// Graphs referenced more than once are built once and shared.
func (d *Definition) Resolve(registry *Registry, opts ...ResolveOption) (*graph.Graph, error) {
	o := resolveOptions{
		leftSuffix:  operation.DefaultLeftSuffix,
		rightSuffix: operation.DefaultRightSuffix,
	}
	for _, opt := range opts {
		opt(&o)
	}
	r := &resolver{
		def:      d,
		registry: registry,
		opts:     o,
		stack:    make(map[string]bool),
		resolved: make(map[string]*graph.Graph),
	}
	g, err := r.resolve(d.Output, nil)
	if err != nil {
		return nil, err
	}
	return g.Named(d.Name), nil
}

type resolver struct {
	def      *Definition
	registry *Registry
	opts     resolveOptions
	stack    map[string]bool
	resolved map[string]*graph.Graph
}

func (r *resolver) resolve(name string, path []string) (*graph.Graph, error) {
	if g, ok := r.resolved[name]; ok {
		return g, nil
	}
	path = append(slices.Clip(path), name)
	if r.stack[name] {
		return nil, invalid("circular graph reference " + strings.Join(path, " -> "))
	}
	def, ok := r.def.Graphs[name]
	if !ok {
		return nil, invalid(fmt.Sprintf("graph %q is not defined", name))
	}
	r.stack[name] = true
	defer delete(r.stack, name)

	var g *graph.Graph
	if def.From != "" {
		base, err := r.resolve(def.From, path)
		if err != nil {
			return nil, err
		}
		g = base
	} else {
		g = graph.FromIter(def.Input)
	}
	g = g.Named(name)

	for i, s := range def.Stages {
		next, err := r.stage(g, s, path)
		if err != nil {
			return nil, stageError(err, name, i)
		}
		g = next
	}
	if err := g.Err(); err != nil {
		return nil, err
	}
	r.resolved[name] = g
	return g, nil
}

func (r *resolver) stage(g *graph.Graph, s StageDef, path []string) (*graph.Graph, error) {
	switch s.Kind() {
	case "map":
		m, err := r.registry.Mapper(s.Map, s.Args)
		if err != nil {
			return nil, err
		}
		return g.Map(m), nil
	case "reduce":
		red, err := r.registry.Reducer(s.Reduce, s.Args)
		if err != nil {
			return nil, err
		}
		return g.Reduce(red, s.Keys...), nil
	case "sort":
		return g.Sort(s.Sort...), nil
	case "join":
		right, err := r.resolve(s.Join, path)
		if err != nil {
			return nil, err
		}
		strategy := operation.Inner
		if s.Strategy != "" {
			if strategy, err = operation.ParseStrategy(s.Strategy); err != nil {
				return nil, err
			}
		}
		left, rightSuffix := r.opts.leftSuffix, r.opts.rightSuffix
		if len(s.Suffixes) == 2 {
			left, rightSuffix = s.Suffixes[0], s.Suffixes[1]
		}
		next := g.Join(right, strategy, s.Keys,
			operation.WithSuffixes(left, rightSuffix),
			operation.WithOrderCheck(r.opts.checkOrder))
		return next, next.Err()
	}
	return nil, invalid("stage must set exactly one of map, reduce, sort, join")
}

// stageError records where a stage failed. The innermost stage wins.
func stageError(err error, graphName string, index int) error {
	if appErr, ok := errors.AsAppError(err); ok {
		if _, set := appErr.Details["graph"]; !set {
			appErr.WithDetail("graph", graphName).WithDetail("stage", index)
		}
	}
	return err
}
