package validation

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneOf_NormalizesCase(t *testing.T) {
	rule := OneOf("Cornfield", "Tomorrow Night")

	got, err := rule("  tomorrow night ")
	require.NoError(t, err)
	assert.Equal(t, "Tomorrow Night", got)

	_, err = rule("Sunrise")
	require.Error(t, err)
	assert.True(t, IsFailure(err))
	assert.Contains(t, err.Error(), "Cornfield, Tomorrow Night")
}

func TestAll_ChainsNormalization(t *testing.T) {
	upper := func(v string) (string, error) { return v + "!", nil }
	rule := All(NotBlank(), upper)

	got, err := rule("  hi ")
	require.NoError(t, err)
	assert.Equal(t, "hi!", got)

	_, err = rule("   ")
	assert.True(t, IsFailure(err))
}

func TestAny_StopsOnFatalError(t *testing.T) {
	boom := errors.New("boom")
	fatal := func(string) (string, error) { return "", boom }
	never := func(string) (string, error) {
		t.Fatal("rules after a fatal error must not run")
		return "", nil
	}

	_, err := Any(OneOf("x"), fatal, never)("y")
	assert.ErrorIs(t, err, boom)

	got, err := Any(OneOf("x"), OneOf("y"))("Y")
	require.NoError(t, err)
	assert.Equal(t, "y", got)

	_, err = Any(OneOf("x"), OneOf("y"))("z")
	assert.True(t, IsFailure(err))
}

func TestCheck(t *testing.T) {
	v, ok := Check(OneOf("a"), "A")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = Check(OneOf("a"), "b")
	assert.False(t, ok)
}

func TestDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	got, err := Directory()(dir + string(filepath.Separator))
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = Directory()(file)
	assert.True(t, IsFailure(err))
	_, err = Directory()("")
	assert.True(t, IsFailure(err))
}

func TestWritableParent(t *testing.T) {
	dir := t.TempDir()

	got, err := WritableParent()(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports"), got)

	_, err = WritableParent()(filepath.Join(dir, "missing", "exports"))
	assert.True(t, IsFailure(err))

	_, err = WritableParent()(" ")
	assert.True(t, IsFailure(err))
}

func TestWritableParent_ReadOnlyParent(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0o555))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := WritableParent()(filepath.Join(locked, "exports"))
	assert.True(t, IsFailure(err))
}

func TestFileWithExtension(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "a", "car export map.scad")
	last := filepath.Join(root, "b", "car export map.scad")
	for _, p := range []string{first, last} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("// map"), 0o644))
	}
	rootFn := func() (string, error) { return root, nil }
	rule := FileWithExtension(".scad", rootFn)

	t.Run("bare name last match wins", func(t *testing.T) {
		got, err := rule("car export map.scad")
		require.NoError(t, err)
		assert.Equal(t, last, got)
	})

	t.Run("absolute path accepted", func(t *testing.T) {
		got, err := rule(first)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	})

	t.Run("path relative to root", func(t *testing.T) {
		got, err := rule(filepath.Join("a", "car export map.scad"))
		require.NoError(t, err)
		assert.Equal(t, first, got)
	})

	t.Run("extension is checked case-insensitively", func(t *testing.T) {
		_, err := rule("car export map.SCAD")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := rule("car.stl")
		assert.True(t, IsFailure(err))
	})

	t.Run("root errors are fatal", func(t *testing.T) {
		boom := errors.New("root unavailable")
		_, err := FileWithExtension(".scad", func() (string, error) { return "", boom })("x.scad")
		assert.ErrorIs(t, err, boom)
		assert.False(t, IsFailure(err))
	})
}

func TestExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	bin := t.TempDir()
	script := filepath.Join(bin, "fakescad")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", bin)

	got, err := Executable("linux")("fakescad")
	require.NoError(t, err)
	assert.Equal(t, "fakescad", got)

	got, err = Executable("linux")(script)
	require.NoError(t, err)
	assert.Equal(t, script, got)

	_, err = Executable("linux")("definitely-not-here")
	assert.True(t, IsFailure(err))
}

func TestExecutable_DarwinBundleFallback(t *testing.T) {
	bundle := "/Applications/OpenSCAD.app"
	inner := filepath.Join(bundle, BundleBinary)
	original := lookPath
	lookPath = func(file string) (string, error) {
		if file == inner {
			return file, nil
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = original })

	got, err := Executable("darwin")(bundle)
	require.NoError(t, err)
	assert.Equal(t, inner, got)

	_, err = Executable("linux")(bundle)
	assert.True(t, IsFailure(err))
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	assert.Equal(t, filepath.Join(home, "Desktop"), ExpandHome("~/Desktop"))
	assert.Equal(t, "/abs/~/x", ExpandHome("/abs/~/x"))
}
