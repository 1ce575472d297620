package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/kbukum/compgraph/config"
	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/logger"
	"github.com/kbukum/compgraph/observability"
	"github.com/kbukum/compgraph/plan"
	"github.com/kbukum/compgraph/version"
)

// App carries the process-wide infrastructure a command runs with.
type App struct {
	Cfg       config.Config
	Logger    *logger.Logger
	Telemetry *observability.Telemetry

	shutdown        observability.ShutdownFunc
	gracefulTimeout time.Duration
}

// NewApp loads configuration, applies flag overrides and starts logging
// and telemetry. Logs go to stderr.
func NewApp(ctx context.Context, opts *RootOptions, stderr io.Writer) (*App, error) {
	cfg := config.Config{}
	loadOpts := []config.LoaderOption{config.WithOverrides(func(c *config.Config) {
		if opts.LogLevel != "" {
			c.Logging.Level = opts.LogLevel
		}
		if opts.CheckGrouping {
			c.Engine.CheckGrouping = true
		}
	})}
	if opts.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.ConfigFile))
	}
	if err := config.Load("compgraph", &cfg, loadOpts...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logger.NewWithWriter(&cfg.Logging, stderr, cfg.Name)
	shutdown, err := observability.Setup(ctx, &cfg.Telemetry, cfg.Name, version.Short(), cfg.Environment, log)
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}
	tel, err := observability.NewTelemetry()
	if err != nil {
		return nil, multierr.Append(err, shutdown(ctx))
	}

	return &App{
		Cfg:             cfg,
		Logger:          log,
		Telemetry:       tel,
		shutdown:        shutdown,
		gracefulTimeout: 5 * time.Second,
	}, nil
}

// RunOptions returns the graph run options derived from the configuration.
func (a *App) RunOptions() []graph.RunOption {
	return []graph.RunOption{
		graph.WithLogger(a.Logger),
		graph.WithTelemetry(a.Telemetry),
		graph.WithGroupingCheck(a.Cfg.Engine.CheckGrouping),
	}
}

// ResolveOptions returns the plan resolution options derived from the
// configuration.
func (a *App) ResolveOptions() []plan.ResolveOption {
	return []plan.ResolveOption{
		plan.WithJoinSuffixes(a.Cfg.Engine.JoinLeftSuffix, a.Cfg.Engine.JoinRightSuffix),
		plan.WithJoinOrderCheck(a.Cfg.Engine.CheckGrouping),
	}
}

// RunTask runs a finite task. SIGINT and SIGTERM cancel the task's
// context. Telemetry is flushed when the task returns.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	taskCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	taskErr := task(taskCtx)
	if taskCtx.Err() != nil && ctx.Err() == nil {
		a.Logger.Warn("task canceled by signal")
	}
	a.Logger.Debug("task finished", logger.DurationFields("task", time.Since(start)))

	if stopErr := a.Shutdown(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// Shutdown flushes telemetry within the graceful timeout.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.Logger.WithError(err).Error("telemetry shutdown failed")
		return err
	}
	return nil
}
