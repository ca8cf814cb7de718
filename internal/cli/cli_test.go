package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/partforge/internal/app"
	"github.com/vk/partforge/internal/settings"
	"github.com/vk/partforge/internal/telemetry"
	"github.com/vk/partforge/internal/testutil"
)

type fixture struct {
	root     string
	out      string
	tree     string
	store    string
	renderer *testutil.FakeRenderer
	roots    []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the renderer")
	}
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "openscad"), []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", bin)

	f := &fixture{root: t.TempDir(), out: t.TempDir(), renderer: testutil.NewFakeRenderer()}
	f.roots = []string{f.root}
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "Car export map.scad"), nil, 0o644))
	f.tree = filepath.Join(f.root, "car.hcl")
	require.NoError(t, os.WriteFile(f.tree, []byte(`model "chassis" {}
model "wheel" { quantity = 2 }
`), 0o644))

	f.store = filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, settings.NewJSONStore(f.store).Save(context.Background(), "car.outputDirectory", f.out))
	return f
}

func (f *fixture) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	env := func(profile string) settings.Environment {
		return settings.Environment{
			Profile:      profile,
			GOOS:         runtime.GOOS,
			ProjectRoots: func(context.Context, string) []string { return f.roots },
		}
	}
	args = append(args, "--settings-file", f.store)
	err := Execute(context.Background(), Streams{In: strings.NewReader(""), Out: &out, Err: &errOut}, args,
		app.WithRunner(f.renderer),
		app.WithTelemetry(telemetry.Noop()),
		app.WithEnvironment(env))
	if err != nil {
		t.Logf("stderr:\n%s", errOut.String())
	}
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected *ExitError, got %T", err)
	return exitErr.Code
}

func TestExecute_Export(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "export", f.tree, "--workers", "1", "--no-input")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Finished exporting: Wheel 2.stl")
	assert.Contains(t, out, "Done! 3 exported, 0 failed")
	assert.FileExists(t, filepath.Join(f.out, "Chassis.stl"))

	values, err := settings.NewJSONStore(f.store).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "openscad", values["openScadLocation"])
}

func TestExecute_NamingFlag(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "export", f.tree, "--naming", "underscore", "--no-input")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Finished exporting: wheel_2.stl")
}

func TestExecute_RenderFailures(t *testing.T) {
	f := newFixture(t)
	f.renderer.Fail("wheel", 1, "ERROR: bad wheel")

	_, err := f.execute(t, "export", f.tree, "--no-input")
	assert.Equal(t, 0, exitCode(t, err))

	out, err := f.execute(t, "export", f.tree, "--no-input", "--strict")
	assert.Equal(t, ExitFailures, exitCode(t, err))
	assert.Contains(t, out, "Done! 1 exported, 1 failed")
}

func TestExecute_NoInputQuits(t *testing.T) {
	f := newFixture(t)
	f.roots = nil

	_, err := f.execute(t, "export", f.tree, "--no-input")
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.EqualError(t, err, "Quitting.")
	assert.Empty(t, f.renderer.Calls())
}

func TestExecute_UsageErrors(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"missing tree path", []string{"export"}, "requires at least 1 arg"},
		{"unknown flag", []string{"export", f.tree, "--bogus"}, "unknown flag"},
		{"unknown command", []string{"explode"}, "unknown command"},
		{"bad log format", []string{"export", f.tree, "--log-format", "xml"}, "invalid log-format"},
		{"missing config file", []string{"export", f.tree, "--config", filepath.Join(f.root, "nope.yaml")}, "failed to read config"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.execute(t, tc.args...)
			assert.Equal(t, ExitUsage, exitCode(t, err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestExecute_ConfigPrecedence(t *testing.T) {
	f := newFixture(t)
	cfgPath := filepath.Join(f.root, "partforge.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log-level: loud\nnaming: underscore\n"), 0o644))

	_, err := f.execute(t, "export", f.tree, "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log-level "loud"`)

	t.Setenv("PARTFORGE_LOG_LEVEL", "warn")
	out, err := f.execute(t, "export", f.tree, "--config", cfgPath, "--no-input")
	require.NoError(t, err, "environment beats the config file")
	assert.Contains(t, out, "wheel_2.stl", "config file beats the flag default")

	t.Setenv("PARTFORGE_NAMING", "verbatim")
	out, err = f.execute(t, "export", f.tree, "--config", cfgPath, "--no-input", "--naming", "space")
	require.NoError(t, err)
	assert.Contains(t, out, "Wheel 2.stl", "flag beats everything")
}

func TestExecute_Help(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "export")
}

func TestSettingsCommands(t *testing.T) {
	f := newFixture(t)
	store := settings.NewJSONStore(f.store)
	require.NoError(t, store.Save(context.Background(), "openScadLocation", "openscad"))

	out, err := f.execute(t, "settings", "list")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("car.outputDirectory = %s\nopenScadLocation = openscad\n", f.out), out)

	out, err = f.execute(t, "settings", "reset", "output-directory", "--profile", "car")
	require.NoError(t, err)
	assert.Equal(t, "Removed car.outputDirectory.\n", out)

	out, err = f.execute(t, "settings", "reset", "openScadLocation")
	require.NoError(t, err)
	assert.Equal(t, "Removed openScadLocation.\n", out)

	out, err = f.execute(t, "settings", "list")
	require.NoError(t, err)
	assert.Equal(t, "No stored settings.\n", out)

	_, err = f.execute(t, "settings", "reset", "nope")
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), `no stored setting "nope"`)

	_, err = f.execute(t, "settings", "reset", "naming-strategy")
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), "not persisted")
}

func TestExitError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"nil", nil, 0, ""},
		{"abort", fmt.Errorf("resolving: %w", settings.ErrAborted), ExitFailure, "Quitting."},
		{"no input", settings.ErrNoInput, ExitFailure, "Quitting."},
		{"strict failures", fmt.Errorf("%w: 1 of 2 artifacts failed", app.ErrFailures), ExitFailures, "export finished with failures: 1 of 2 artifacts failed"},
		{"interrupted", fmt.Errorf("export interrupted: %w", context.Canceled), ExitInterrupted, "Interrupted."},
		{"other", errors.New("disk on fire"), ExitFailure, "disk on fire"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := exitError(tc.err)
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tc.code, exitErr.Code)
			assert.Equal(t, tc.msg, exitErr.Message)
		})
	}
}
