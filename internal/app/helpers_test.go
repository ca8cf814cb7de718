package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/partforge/internal/settings"
	"github.com/vk/partforge/internal/telemetry"
	"github.com/vk/partforge/internal/testutil"
)

// project is an on-disk layout with a renderer on PATH, a definition file
// under the project root and an output directory.
type project struct {
	root string
	out  string
}

func newProject(t *testing.T) project {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the renderer")
	}
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "openscad"), []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", bin)

	p := project{root: t.TempDir(), out: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(p.root, "Car export map.scad"), []byte("// parts\n"), 0o644))
	return p
}

func (p project) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(p.root, "trees", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// store returns a store that already knows where the output goes.
func (p project) store(profile string) *testutil.MemoryStore {
	return testutil.NewMemoryStore(map[string]string{
		settings.StoreKey(profile, "outputDirectory"): p.out,
	})
}

func (p project) environment(profile string) settings.Environment {
	return settings.Environment{
		Profile: profile,
		GOOS:    runtime.GOOS,
		WorkDir: p.root,
		Naming:  "space",
		ProjectRoots: func(context.Context, string) []string {
			return []string{p.root}
		},
	}
}

// SetupAppTest creates a new app instance for system testing. It returns the
// report output and the log output.
func SetupAppTest(t *testing.T, cfg Config, opts ...Option) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	config, err := NewConfig(cfg)
	require.NoError(t, err)

	out, logs := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	opts = append([]Option{
		WithTelemetry(telemetry.Noop()),
		WithPrompter(settings.NoInputPrompter{}),
	}, opts...)
	testApp, err := NewApp(&bytes.Buffer{}, out, logs, config, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if t.Failed() || os.Getenv("PARTFORGE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return testApp, out, logs
}
