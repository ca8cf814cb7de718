package executor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/partforge/internal/ctxlog"
	"github.com/vk/partforge/internal/fsutil"
	"github.com/vk/partforge/internal/renderer"
	"github.com/vk/partforge/internal/settings"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, s *settings.Settings, taskChan <-chan *task, record func([]Result), workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for t := range taskChan {
		workerLogger := logger.With("workerID", workerID, "job", t.job.Name)
		if ctx.Err() != nil {
			workerLogger.Debug("Skipping job, export was interrupted.")
			continue
		}
		workerLogger.Debug("Worker picked up job.")
		record(e.runTask(ctxlog.WithLogger(ctx, workerLogger), s, t))
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// runTask renders one job and makes its copies.
func (e *Executor) runTask(ctx context.Context, s *settings.Settings, t *task) []Result {
	logger := ctxlog.FromContext(ctx)
	primary, copies := t.artifacts[0], t.artifacts[1:]

	ctx, span := e.tracer.Start(ctx, "render "+t.job.Name, trace.WithAttributes(
		attribute.String("partforge.kind", t.job.Kind.String()),
		attribute.String("partforge.path", primary.path),
		attribute.Int("partforge.quantity", t.job.Quantity),
	))
	defer span.End()

	newResult := func(a artifact) Result {
		return Result{Job: t.job, Path: a.path, File: a.file, Copy: a.copy}
	}
	results := make([]Result, 0, len(t.artifacts))

	argv := renderer.Args(s, t.job, primary.file)
	if e.cfg.DryRun {
		logger.Info("Dry run, not rendering.", "path", primary.path, "args", argv)
		for _, a := range t.artifacts {
			r := newResult(a)
			r.Status = StatusPlanned
			results = append(results, e.count(ctx, r))
		}
		return results
	}

	start := time.Now()
	first := newResult(primary)
	err := os.MkdirAll(filepath.Dir(primary.file), 0o755)
	if err == nil {
		logger.Debug("Rendering.", "args", argv)
		err = renderer.Render(ctx, e.runner, argv)
	}
	first.Duration = time.Since(start)
	e.duration.Record(ctx, first.Duration.Seconds(),
		metric.WithAttributes(attribute.String("partforge.kind", t.job.Kind.String())))

	if err != nil {
		logger.Error("Failed to export.", "path", primary.path, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		first.Status, first.Err = StatusFailed, err
		return append(results, e.count(ctx, first))
	}
	logger.Info("Finished exporting.", "path", primary.path, "duration", first.Duration)
	first.Status = StatusSucceeded
	results = append(results, e.count(ctx, first))

	for _, a := range copies {
		r := newResult(a)
		if err := fsutil.CopyFile(primary.file, a.file); err != nil {
			logger.Error("Failed to copy export.", "path", a.path, "error", err)
			span.RecordError(err)
			r.Status, r.Err = StatusFailed, err
		} else {
			logger.Debug("Copied export.", "path", a.path)
			r.Status = StatusSucceeded
		}
		results = append(results, e.count(ctx, r))
	}
	return results
}

func (e *Executor) count(ctx context.Context, r Result) Result {
	e.artifacts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", r.Status.String())))
	return r
}
