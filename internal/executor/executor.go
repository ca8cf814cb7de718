package executor

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vk/partforge/internal/ctxlog"
	"github.com/vk/partforge/internal/renderer"
	"github.com/vk/partforge/internal/settings"
	"github.com/vk/partforge/internal/telemetry"
	"github.com/vk/partforge/internal/tree"
)

// SettingsSource supplies the settings snapshot for a run.
type SettingsSource interface {
	Settings(ctx context.Context) (*settings.Settings, error)
}

// Config controls a run.
type Config struct {
	// Workers is the pool size. Zero or less means one per CPU.
	Workers int
	// DryRun plans and logs every render without running it.
	DryRun bool
}

// Executor dispatches render jobs to a worker pool.
type Executor struct {
	source SettingsSource
	runner renderer.Runner
	cfg    Config

	tracer    trace.Tracer
	artifacts metric.Int64Counter
	duration  metric.Float64Histogram
}

// Option configures an Executor.
type Option func(*Executor)

// WithTelemetry records spans and metrics through tel.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(e *Executor) {
		e.tracer = tel.Tracer()
		e.artifacts, _ = tel.Meter().Int64Counter("partforge.artifacts",
			metric.WithDescription("Artifacts handled, by status."))
		e.duration, _ = tel.Meter().Float64Histogram("partforge.render.duration",
			metric.WithDescription("Wall time of one render."),
			metric.WithUnit("s"))
	}
}

// New creates an executor.
func New(source SettingsSource, runner renderer.Runner, cfg Config, opts ...Option) *Executor {
	e := &Executor{source: source, runner: runner, cfg: cfg}
	WithTelemetry(telemetry.Noop())(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run renders every job in batches. It fails before rendering anything when
// the settings cannot be resolved or two artifacts collide. Otherwise it
// returns one Result per artifact in completion order, plus ctx.Err() when
// the run was interrupted.
func (e *Executor) Run(ctx context.Context, batches *tree.Batches) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)

	s, err := e.source.Settings(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := plan(s, batches)
	if err != nil {
		return nil, err
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, len(tasks)))
	logger.Info("Starting export.", "jobs", len(tasks), "workers", workers,
		"output_dir", s.OutputDir, "dry_run", e.cfg.DryRun)

	var (
		mu      sync.Mutex
		results []Result
	)
	record := func(rs []Result) {
		mu.Lock()
		results = append(results, rs...)
		mu.Unlock()
	}

	taskChan := make(chan *task)
	var g errgroup.Group
	g.Go(func() error {
		defer close(taskChan)
		for _, t := range tasks {
			select {
			case taskChan <- t:
			case <-ctx.Done():
				logger.Warn("Export interrupted, no further jobs will start.", "error", ctx.Err())
				return nil
			}
		}
		return nil
	})
	for i := 1; i <= workers; i++ {
		g.Go(func() error {
			e.worker(ctx, s, taskChan, record, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("export: %w", err)
	}

	summary := Summarize(results)
	logger.Info("Export finished.", "succeeded", summary.Succeeded, "failed", summary.Failed, "planned", summary.Planned)
	return results, ctx.Err()
}
