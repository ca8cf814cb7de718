package renderer

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/partforge/internal/settings"
	"github.com/vk/partforge/internal/tree"
)

func baseSettings() *settings.Settings {
	return &settings.Settings{
		RendererPath:   "/usr/bin/openscad",
		DefinitionFile: "/proj/export map.scad",
		ColorScheme:    "Cornfield",
		ImageWidth:     1600,
		ImageHeight:    900,
	}
}

func mustJob(t *testing.T, name string, kind tree.Kind, opts ...tree.JobOption) *tree.Job {
	t.Helper()
	job, err := tree.NewJob(name, kind, opts...)
	require.NoError(t, err)
	return job
}

func TestArgs_Model(t *testing.T) {
	t.Parallel()

	params := tree.NewParams()
	require.NoError(t, params.Set("length", tree.NumberValue(120)))
	require.NoError(t, params.Set("finish", tree.StringValue(`matte "soft"`)))
	require.NoError(t, params.Set("hollow", tree.BoolValue(true)))
	job := mustJob(t, "rear_axle", tree.KindModel, tree.WithParams(params))

	s := baseSettings()
	s.Accelerated = true
	got := Args(s, job, "/out/Rear Axle.stl")

	want := []string{
		"/usr/bin/openscad",
		"-o/out/Rear Axle.stl",
		"/proj/export map.scad",
		"-Dlength=120",
		`-Dfinish="matte \"soft\""`,
		"-Dhollow=true",
		`-Dpart="rear_axle"`,
		ManifoldFlag,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestArgs_ImageWithoutCapability(t *testing.T) {
	t.Parallel()

	job := mustJob(t, "overview", tree.KindImage,
		tree.WithImage(tree.ImageOptions{Camera: "0,0,0,55,0,25,500"}))
	got := Args(baseSettings(), job, "/out/Overview.png")

	want := []string{
		"/usr/bin/openscad",
		"-o/out/Overview.png",
		"/proj/export map.scad",
		`-Dpart="overview"`,
		"--camera=0,0,0,55,0,25,500",
		"--colorscheme=Cornfield",
		"--imgsize=1600,900",
		"-D$fs=0.4",
		"-D$fa=0.8",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestArgs_ImageOverridesAndCapability(t *testing.T) {
	t.Parallel()

	job := mustJob(t, "overview", tree.KindImage, tree.WithImage(tree.ImageOptions{
		Camera: "1,2,3", ColorScheme: "Metallic", Width: 1920, Height: 1080,
	}))
	s := baseSettings()
	s.Accelerated = true
	got := Args(s, job, "out.png")

	assert.Equal(t, []string{
		"--camera=1,2,3", "--colorscheme=Metallic", "--imgsize=1920,1080", RenderFlag, ManifoldFlag,
	}, got[len(got)-5:])
	assert.NotContains(t, got, "-D$fs=0.4")
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   cty.Value
		want string
	}{
		{"integer", cty.NumberIntVal(3), "3"},
		{"fraction", cty.NumberFloatVal(0.4), "0.4"},
		{"negative", cty.NumberFloatVal(-2.5), "-2.5"},
		{"string", cty.StringVal("matte"), `"matte"`},
		{"backslash", cty.StringVal(`a\b`), `"a\\b"`},
		{"false", cty.False, "false"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FormatValue(tc.in))
		})
	}
}

type stubRunner struct {
	out Output
	err error
	got []string
}

func (s *stubRunner) Run(_ context.Context, argv []string) (Output, error) {
	s.got = argv
	return s.out, s.err
}

func TestRender(t *testing.T) {
	t.Parallel()

	ok := &stubRunner{}
	require.NoError(t, Render(context.Background(), ok, []string{"openscad"}))

	failing := &stubRunner{out: Output{ExitCode: 1, Stderr: []byte("ERROR: Parser error\n")}}
	err := Render(context.Background(), failing, []string{"openscad"})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "renderer exited with status 1: ERROR: Parser error", err.Error())

	launch := errors.New("no such file")
	assert.ErrorIs(t, Render(context.Background(), &stubRunner{err: launch}, []string{"x"}), launch)
}

func TestSupportsManifold(t *testing.T) {
	t.Parallel()

	r := &stubRunner{out: Output{ExitCode: 1, Stderr: []byte("--backend arg : 3D rendering backend: cgal or manifold")}}
	ok, err := SupportsManifold(context.Background(), r, "/usr/bin/openscad")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"/usr/bin/openscad", "-h"}, r.got)

	ok, err = SupportsManifold(context.Background(), &stubRunner{out: Output{Stdout: []byte("usage: openscad")}}, "openscad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	t.Parallel()

	out, err := ExecRunner{}.Run(context.Background(), []string{"/bin/sh", "-c", "echo hi; echo oops >&2; exit 3"})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(out.Stdout))
	assert.Equal(t, "oops\n", string(out.Stderr))
	assert.Equal(t, 3, out.ExitCode)

	_, err = ExecRunner{}.Run(context.Background(), []string{"/definitely/not/a/binary"})
	require.Error(t, err)
}
