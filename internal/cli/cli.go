package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vk/partforge/internal/app"
	"github.com/vk/partforge/internal/settings"
)

// Exit codes.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitFailures    = 3
	ExitInterrupted = 130
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Execute runs the command line args. Every returned error is an *ExitError.
// opts are passed to every App the commands build.
func Execute(ctx context.Context, streams Streams, args []string, opts ...app.Option) error {
	root := NewRootCommand(streams, opts...)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra rejected before a command ran.
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// NewRootCommand builds the partforge command tree.
func NewRootCommand(streams Streams, opts ...app.Option) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "partforge",
		Short: "Batch-render OpenSCAD artifacts from a part tree",
		Long: `partforge renders every model, drawing and image in a part tree
(HCL or YAML) through OpenSCAD, writing one directory per group.

Settings such as the OpenSCAD binary and the output directory are asked for
once and remembered.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindConfig(v, cmd)
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	pf := root.PersistentFlags()
	pf.String("config", "", "Optional process config file (partforge.yaml).")
	pf.String("log-level", "info", "Logging level: debug, info, warn or error.")
	pf.String("log-format", "text", "Log output format: text or json.")
	pf.String("settings-file", "", "Durable settings store (default: per-user config dir).")
	pf.Bool("no-input", false, "Fail instead of prompting when a setting needs an answer.")

	root.AddCommand(
		newExportCommand(v, streams, opts),
		newWatchCommand(v, streams, opts),
		newSettingsCommand(v, streams),
	)
	return root
}

// bindConfig layers flags over PARTFORGE_* environment variables over the
// optional config file.
func bindConfig(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix("PARTFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("failed to read config %s: %v", path, err)}
		}
	}
	return nil
}

func addExportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("workers", runtime.NumCPU(), "Number of concurrent renders.")
	f.String("naming", "space", "File naming: space, underscore or verbatim.")
	f.String("color-scheme", settings.DefaultColorScheme, "Default color scheme for images.")
	f.Int("image-width", settings.DefaultImageWidth, "Default image width in pixels.")
	f.Int("image-height", settings.DefaultImageHeight, "Default image height in pixels.")
	f.Bool("confirm-defaults", false, "Show the settings menu even when a default is valid.")
	f.Bool("dry-run", false, "Plan and log every render without running it.")
	f.Bool("strict", false, "Exit with status 3 when any artifact failed.")
	f.Bool("telemetry", false, "Export traces and metrics (stdout or OTLP).")
}

func appConfig(v *viper.Viper, paths []string) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		TreePaths:       paths,
		LogFormat:       strings.ToLower(v.GetString("log-format")),
		LogLevel:        strings.ToLower(v.GetString("log-level")),
		Workers:         v.GetInt("workers"),
		Naming:          v.GetString("naming"),
		ColorScheme:     v.GetString("color-scheme"),
		ImageWidth:      v.GetInt("image-width"),
		ImageHeight:     v.GetInt("image-height"),
		SettingsFile:    v.GetString("settings-file"),
		NoInput:         v.GetBool("no-input"),
		ConfirmDefaults: v.GetBool("confirm-defaults"),
		DryRun:          v.GetBool("dry-run"),
		Strict:          v.GetBool("strict"),
		Telemetry:       v.GetBool("telemetry"),
		Debounce:        v.GetDuration("debounce"),
	})
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return cfg, nil
}

// runApp builds the App for cmd and hands it to fn.
func runApp(cmd *cobra.Command, v *viper.Viper, streams Streams, paths []string, opts []app.Option, fn func(context.Context, *app.App) error) error {
	cfg, err := appConfig(v, paths)
	if err != nil {
		return err
	}
	a, err := app.NewApp(streams.In, streams.Out, streams.Err, cfg, opts...)
	if err != nil {
		return exitError(err)
	}
	defer func() { _ = a.Close(context.Background()) }()
	return exitError(fn(cmd.Context(), a))
}

// exitError maps an application error onto the process exit status.
func exitError(err error) error {
	switch {
	case err == nil:
		return nil
	case settings.IsFatal(err):
		return &ExitError{Code: ExitFailure, Message: "Quitting."}
	case errors.Is(err, app.ErrFailures):
		return &ExitError{Code: ExitFailures, Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return &ExitError{Code: ExitInterrupted, Message: "Interrupted."}
	default:
		return &ExitError{Code: ExitFailure, Message: err.Error()}
	}
}
