package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/kbukum/compgraph/errors"
)

// Telemetry creates run spans and records run metrics.
type Telemetry struct {
	tracer  trace.Tracer
	metrics *Metrics
}

type telemetryOptions struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// TelemetryOption configures NewTelemetry.
type TelemetryOption func(*telemetryOptions)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TelemetryOption {
	return func(o *telemetryOptions) { o.tracerProvider = tp }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) TelemetryOption {
	return func(o *telemetryOptions) { o.meterProvider = mp }
}

// NewTelemetry builds a Telemetry from the global providers unless overridden.
func NewTelemetry(opts ...TelemetryOption) (*Telemetry, error) {
	var o telemetryOptions
	for _, opt := range opts {
		opt(&o)
	}
	tracer := Tracer()
	if o.tracerProvider != nil {
		tracer = o.tracerProvider.Tracer(InstrumentationName)
	}
	meter := Meter()
	if o.meterProvider != nil {
		meter = o.meterProvider.Meter(InstrumentationName)
	}
	metrics, err := NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &Telemetry{tracer: tracer, metrics: metrics}, nil
}

// Noop returns a Telemetry that records nothing.
func Noop() *Telemetry {
	metrics, _ := NewMetrics(metricnoop.NewMeterProvider().Meter(InstrumentationName))
	return &Telemetry{
		tracer:  tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		metrics: metrics,
	}
}

// StartRun opens the span covering one graph run.
func (t *Telemetry) StartRun(ctx context.Context, graph, runID string, stages int) (context.Context, *Run) {
	ctx, span := t.tracer.Start(ctx, SpanGraphRun, trace.WithAttributes(
		attribute.String(AttrGraph, graph),
		attribute.String(AttrRunID, runID),
		attribute.Int(AttrStages, stages),
	))
	return ctx, &Run{
		ID:      runID,
		Graph:   graph,
		span:    span,
		metrics: t.metrics,
		start:   time.Now(),
	}
}

// Run tracks one graph run until End.
type Run struct {
	ID    string
	Graph string

	span    trace.Span
	metrics *Metrics
	start   time.Time
	once    sync.Once
}

// StageDone records the number of rows a stage emitted.
func (r *Run) StageDone(ctx context.Context, stage string, rows int64) {
	r.span.AddEvent("stage finished", trace.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.Int64(AttrRows, rows),
	))
	r.metrics.RecordStageRows(ctx, r.Graph, stage, rows)
}

// End closes the run span and records its outcome. Only the first call has
// any effect.
func (r *Run) End(ctx context.Context, err error) {
	r.once.Do(func() {
		status, code := "ok", ""
		if err != nil {
			status = "error"
			code = string(errors.CodeOf(err))
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, err.Error())
			if code != "" {
				r.span.SetAttributes(attribute.String(AttrErrorCode, code))
			}
		}
		r.span.SetAttributes(attribute.String(AttrStatus, status))
		r.span.End()
		r.metrics.RecordRun(ctx, r.Graph, status, code, r.Duration())
	})
}

// Duration returns the elapsed time since the run started.
func (r *Run) Duration() time.Duration {
	return time.Since(r.start)
}
