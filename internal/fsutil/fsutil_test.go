package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.hcl"), "")
	writeFile(t, filepath.Join(root, "nested", "a.YAML"), "")
	writeFile(t, filepath.Join(root, "nested", "skip.txt"), "")

	files, err := FindFilesByExtension(root, ".hcl", ".yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "a.YAML"),
	}, files)
}

func TestFindFilesByExtension_PanicsWithoutExtensions(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir()) })
}

func TestFindFilesBySuffix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "car export map.scad"), "")
	writeFile(t, filepath.Join(root, "src", "car.scad"), "")

	names, err := FindFilesBySuffix(root, "export map.scad")
	require.NoError(t, err)
	assert.Equal(t, []string{"car export map.scad"}, names)
}

func TestFindLastNamed_LastMatchWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "parts.scad"), "first")
	writeFile(t, filepath.Join(root, "b", "parts.scad"), "second")

	assert.Equal(t, filepath.Join(root, "b", "parts.scad"), FindLastNamed(root, "parts.scad"))
	assert.Equal(t, "", FindLastNamed(root, "missing.scad"))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.stl")
	dst := filepath.Join(dir, "dst.stl")
	writeFile(t, src, "solid part")
	writeFile(t, dst, "stale content that is longer")

	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "solid part", string(got))
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
