package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/vk/partforge/internal/renderer"
	"github.com/vk/partforge/internal/report"
	"github.com/vk/partforge/internal/settings"
	"github.com/vk/partforge/internal/telemetry"
)

// Version is stamped into telemetry resources.
var Version = "dev"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	cfg     *Config
	in      io.Reader
	outW    io.Writer
	logger  *slog.Logger
	printer *report.Printer

	formats     []format
	runner      renderer.Runner
	store       settings.Backend
	prompter    settings.Prompter
	environment func(profile string) settings.Environment
	tel         *telemetry.Telemetry
}

// Option overrides one of the App's collaborators.
type Option func(*App)

// WithRunner replaces the external renderer.
func WithRunner(r renderer.Runner) Option {
	return func(a *App) { a.runner = r }
}

// WithStore replaces the durable settings store.
func WithStore(s settings.Backend) Option {
	return func(a *App) { a.store = s }
}

// WithPrompter replaces the prompter chosen from the terminal state.
func WithPrompter(p settings.Prompter) Option {
	return func(a *App) { a.prompter = p }
}

// WithEnvironment replaces the process facts used to build settings
// definitions.
func WithEnvironment(fn func(profile string) settings.Environment) Option {
	return func(a *App) { a.environment = fn }
}

// WithTelemetry replaces the telemetry providers. Close does not shut down
// providers passed this way.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(a *App) { a.tel = tel }
}

// NewApp is the constructor for the main application. Logs go to logW, the
// report and line prompts to outW, and line answers are read from in.
func NewApp(in io.Reader, outW, logW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	a := &App{
		cfg:     cfg,
		in:      in,
		outW:    outW,
		logger:  logger,
		printer: report.New(outW),
		formats: coreFormats(),
		runner:  renderer.ExecRunner{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		path := cfg.SettingsFile
		if path == "" {
			var err error
			if path, err = settings.DefaultStorePath(); err != nil {
				return nil, err
			}
		}
		a.store = settings.NewJSONStore(path)
	}
	if a.prompter == nil {
		a.prompter = a.choosePrompter()
	}
	if a.environment == nil {
		a.environment = a.osEnvironment
	}
	if a.tel == nil {
		tel, err := telemetry.Init(context.Background(), telemetry.Config{
			Enabled:     cfg.Telemetry,
			ServiceName: "partforge",
			Version:     Version,
			Writer:      logW,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		a.tel = tel
	}
	logger.Debug("App configured.", "tree_paths", cfg.TreePaths, "workers", cfg.Workers)
	return a, nil
}

// Close flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	return a.tel.Shutdown(ctx)
}

func (a *App) choosePrompter() settings.Prompter {
	if a.cfg.NoInput {
		return settings.NoInputPrompter{}
	}
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return settings.NewHuhPrompter()
	}
	return settings.NewLinePrompter(a.in, a.outW)
}

func (a *App) osEnvironment(profile string) settings.Environment {
	env := settings.EnvironmentFromOS(profile)
	env.Naming = a.cfg.Naming
	env.ColorScheme = a.cfg.ColorScheme
	env.DetectCapability = func(ctx context.Context, binary string) (bool, error) {
		return renderer.SupportsManifold(ctx, a.runner, binary)
	}
	return env
}
