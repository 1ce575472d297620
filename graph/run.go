package graph

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/observability"
	"github.com/kbukum/compgraph/record"
	"github.com/kbukum/compgraph/stream"
)

type runOptions struct {
	log           *logger.Logger
	telemetry     *observability.Telemetry
	checkGrouping bool
	runID         string
}

// RunOption configures a single Run.
type RunOption func(*runOptions)

// WithLogger sets the logger for run diagnostics. Nil means no logging.
func WithLogger(l *logger.Logger) RunOption {
	return func(o *runOptions) { o.log = l }
}

// WithTelemetry sets where run spans and metrics go. By default the global
// OpenTelemetry providers are used.
func WithTelemetry(t *observability.Telemetry) RunOption {
	return func(o *runOptions) { o.telemetry = t }
}

// WithGroupingCheck enables the GROUPING_VIOLATION checks on every Reduce
// and Join stage of the run.
func WithGroupingCheck(enabled bool) RunOption {
	return func(o *runOptions) { o.checkGrouping = enabled }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) RunOption {
	return func(o *runOptions) { o.runID = id }
}

// Run resolves every referenced input against bindings and returns the
// lazily evaluated output. A missing binding is reported here, before any
// source is opened. Each call builds independent iterator state, so a
// Graph can be run repeatedly and concurrently.
func (g *Graph) Run(ctx context.Context, bindings Bindings, opts ...RunOption) (stream.Iterator, error) {
	if g.err != nil {
		return nil, g.err
	}
	for _, name := range g.Inputs() {
		if src, ok := bindings[name]; !ok || src == nil {
			return nil, errors.Binding(name)
		}
	}

	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}
	if o.telemetry == nil {
		tel, err := observability.NewTelemetry()
		if err != nil {
			return nil, err
		}
		o.telemetry = tel
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	ctx = logger.ContextWithRunID(ctx, o.runID)
	ctx, run := o.telemetry.StartRun(ctx, g.name, o.runID, len(g.stages))
	rs := &runState{
		ctx:      ctx,
		bindings: bindings,
		opts:     o,
		run:      run,
		log:      o.log.WithComponent("graph").WithContext(ctx).WithFields(logger.Fields(logger.FieldGraph, g.name)),
	}
	rs.log.Debug("graph run started", logger.Fields("stages", len(g.stages), "inputs", g.Inputs()))

	return &runIter{Iterator: g.build(rs, ""), rs: rs}, nil
}

// runState is owned by a single Run call.
type runState struct {
	ctx      context.Context
	bindings Bindings
	opts     runOptions
	run      *observability.Run
	log      *logger.Logger
	once     sync.Once
}

func (rs *runState) end(err error) {
	rs.once.Do(func() {
		rs.run.End(rs.ctx, err)
		fields := logger.DurationFields("run", rs.run.Duration())
		if err != nil {
			if code := errors.CodeOf(err); code != "" {
				fields["code"] = string(code)
			}
			rs.log.WithError(err).Error("graph run failed", fields)
			return
		}
		rs.log.Debug("graph run finished", fields)
	})
}

// build wires the iterator chain of g for one run. path prefixes stage
// names of join sub-graphs.
func (g *Graph) build(rs *runState, path string) stream.Iterator {
	var it stream.Iterator
	if g.input != "" {
		it = stream.Lazy(rs.bindings[g.input])
		it = rs.instrument(it, path+"input:"+g.input)
	} else {
		it = stream.Lazy(g.source)
		it = rs.instrument(it, path+"input")
	}
	for i, s := range g.stages {
		name := path + strconv.Itoa(i) + ":" + s.name
		it = rs.instrument(s.apply(rs, name, it), name)
	}
	return it
}

func (rs *runState) instrument(it stream.Iterator, stage string) stream.Iterator {
	s := &stageIter{rs: rs, stage: stage}
	s.Iterator = stream.Tap(it, func(context.Context, record.Record) error {
		s.rows++
		return nil
	})
	return s
}

// stageIter reports the rows a stage emitted once, when the stage is
// exhausted or closed.
type stageIter struct {
	stream.Iterator
	rs       *runState
	stage    string
	rows     int64
	reported bool
}

func (it *stageIter) Next(ctx context.Context) (record.Record, bool, error) {
	row, ok, err := it.Iterator.Next(ctx)
	if !ok && err == nil {
		it.report(ctx)
	}
	return row, ok, err
}

func (it *stageIter) Close() error {
	err := it.Iterator.Close()
	it.report(it.rs.ctx)
	return err
}

func (it *stageIter) report(ctx context.Context) {
	if it.reported {
		return
	}
	it.reported = true
	it.rs.run.StageDone(ctx, it.stage, it.rows)
	it.rs.log.Debug("stage finished", logger.Fields(logger.FieldStage, it.stage, logger.FieldRows, it.rows))
}

// runIter ends the run on exhaustion, on the first error, or on Close.
type runIter struct {
	stream.Iterator
	rs *runState
}

func (it *runIter) Next(ctx context.Context) (record.Record, bool, error) {
	row, ok, err := it.Iterator.Next(ctx)
	switch {
	case err != nil:
		it.rs.end(err)
	case !ok:
		it.rs.end(nil)
	}
	return row, ok, err
}

func (it *runIter) Close() error {
	err := it.Iterator.Close()
	it.rs.end(err)
	return err
}
