// Package observability provides OpenTelemetry tracing and metrics for
// graph runs.
//
// Each run gets one span named compgraph.run carrying the run ID. Stages
// add a "stage finished" event with their emitted row count, and the run
// records compgraph.run.total, compgraph.run.duration and
// compgraph.stage.rows.
//
// Exporters:
//
//	shutdown, err := observability.Setup(ctx, &cfg.Telemetry, "compgraph", version.Short(), cfg.Environment, log)
//	defer shutdown(ctx)
//
// Tests inject providers directly:
//
//	tel, err := observability.NewTelemetry(observability.WithTracerProvider(tp))
package observability
