package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.uber.org/multierr"

	"github.com/kbukum/compgraph/config"
	"github.com/kbukum/compgraph/logger"
)

// ShutdownFunc flushes and stops exporters.
type ShutdownFunc func(context.Context) error

// Setup installs OTLP trace and metric exporters described by cfg and routes
// OpenTelemetry's internal logging to log. When telemetry is disabled it
// installs nothing and returns a no-op shutdown.
func Setup(ctx context.Context, cfg *config.TelemetryConfig, service, version, environment string, log *logger.Logger) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	otel.SetLogger(log.Logr())
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.WithError(err).Warn("telemetry export failed")
	}))

	tp, err := InitTracer(ctx, &TracerConfig{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		SampleRate:     cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, &MeterConfig{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		Interval:       cfg.Interval,
	})
	if err != nil {
		return nil, multierr.Append(err, tp.Shutdown(ctx))
	}

	return func(ctx context.Context) error {
		return multierr.Append(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
