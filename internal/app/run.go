package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/partforge/internal/ctxlog"
	"github.com/vk/partforge/internal/executor"
	"github.com/vk/partforge/internal/settings"
	"github.com/vk/partforge/internal/tree"
)

// ErrFailures is returned in strict mode when at least one artifact failed.
var ErrFailures = errors.New("export finished with failures")

// Run performs one complete export: load the tree, resolve settings, render
// every job and print the report. Render failures are reported but only
// fail the run in strict mode.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	ctx = ctxlog.WithLogger(ctx, a.logger.With("run_id", runID))
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	nodes, err := a.loadTree(ctx)
	if err != nil {
		return err
	}
	batches := tree.Flatten(nodes...)
	if batches.Len() == 0 {
		logger.Warn("No jobs found in tree, export not required.")
		a.printer.Summary(executor.Summary{})
		return nil
	}
	logger.Info("Tree flattened.", "jobs", batches.Len(), "directories", len(batches.Paths()))

	resolver := a.newResolver()
	exec := executor.New(resolver, a.runner, executor.Config{
		Workers: a.cfg.Workers,
		DryRun:  a.cfg.DryRun,
	}, executor.WithTelemetry(a.tel))

	a.printer.Start(batches.Len())
	results, runErr := exec.Run(ctx, batches)
	if runErr != nil && len(results) == 0 {
		return runErr
	}
	a.printer.Results(results)
	if runErr != nil {
		return fmt.Errorf("export interrupted: %w", runErr)
	}

	if summary := executor.Summarize(results); a.cfg.Strict && summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d artifacts failed", ErrFailures, summary.Failed, len(results))
	}
	logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) newResolver() *settings.Resolver {
	width, height := a.cfg.ImageWidth, a.cfg.ImageHeight
	if width == 0 {
		width = settings.DefaultImageWidth
	}
	if height == 0 {
		height = settings.DefaultImageHeight
	}
	defs := settings.StandardDefinitions(a.environment(a.Profile()))
	return settings.NewResolver(a.store, a.prompter, defs,
		settings.WithConfirmDefaults(a.cfg.ConfirmDefaults),
		settings.WithImageSize(width, height))
}
