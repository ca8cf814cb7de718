package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/partforge/internal/tree"
)

func writeHCL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_TreeKeepsSourceOrder(t *testing.T) {
	t.Parallel()
	path := writeHCL(t, t.TempDir(), "car.hcl", `
model "chassis" {}

group "Parts" {
  model "rear_axle" {
    file_name = "axle"
    format    = "3mf"
    quantity  = 2
    params = { length = 120, finish = "matte", hollow = true }
  }
  group "Wheels" {
    model "wheel" { quantity = 4 }
  }
  image "overview" {
    camera       = "0,0,0,55,0,25,500"
    color_scheme = "Metallic"
    width        = 1920
    height       = 1080
  }
  drawing "plate" {
    format = "svg"
    params = { label = upper("front") }
  }
}
`)

	nodes, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	batches := tree.Flatten(nodes...)
	assert.Equal(t, []string{"", "Parts", "Parts/Wheels"}, batches.Paths())

	parts := batches.Jobs("Parts")
	require.Len(t, parts, 3)

	axle := parts[0]
	assert.Equal(t, "rear_axle", axle.Name)
	assert.Equal(t, "axle", axle.FileName)
	assert.Equal(t, tree.KindModel, axle.Kind)
	assert.Equal(t, "3mf", axle.Format)
	assert.Equal(t, 2, axle.Quantity)
	assert.Equal(t, []string{"length", "finish", "hollow", "part"}, axle.Params.Names())
	length, _ := axle.Params.Get("length")
	assert.True(t, length.Equals(cty.NumberIntVal(120)).True())

	overview := parts[1]
	assert.Equal(t, tree.KindImage, overview.Kind)
	assert.Equal(t, "png", overview.Format)
	assert.Equal(t, &tree.ImageOptions{Camera: "0,0,0,55,0,25,500", ColorScheme: "Metallic", Width: 1920, Height: 1080}, overview.Image)

	plate := parts[2]
	assert.Equal(t, tree.KindDrawing, plate.Kind)
	label, _ := plate.Params.Get("label")
	assert.Equal(t, "FRONT", label.AsString())

	wheels := batches.Jobs("Parts/Wheels")
	require.Len(t, wheels, 1)
	assert.Equal(t, 4, wheels[0].Quantity)
	assert.Equal(t, "stl", wheels[0].Format)
}

func TestLoad_FilesInArgumentOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	second := writeHCL(t, dir, "b.hcl", `model "second" {}`)
	first := writeHCL(t, dir, "a.hcl", `model "first" {}`)

	nodes, err := NewLoader().Load(context.Background(), second, first)
	require.NoError(t, err)

	var names []string
	for _, n := range nodes {
		names = append(names, n.(*tree.Job).Name)
	}
	assert.Equal(t, []string{"second", "first"}, names)
}

func TestLoad_SameFileTwiceLoadsOnce(t *testing.T) {
	t.Parallel()
	path := writeHCL(t, t.TempDir(), "one.hcl", `model "only" {}`)

	nodes, err := NewLoader().Load(context.Background(), path, path)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", `model "x" {`, "failed to parse HCL file"},
		{"unknown attribute", `model "x" { colour = "red" }`, "Unsupported argument"},
		{"attribute in group", `group "g" { name = "x" }`, "Unsupported argument"},
		{"unknown block", `part "x" {}`, "Unsupported block type"},
		{"bad format", `drawing "x" { format = "stl" }`, `format "stl" is not valid for a drawing`},
		{"image without camera", `image "x" {}`, `"camera" is required`},
		{"image with one dimension", `image "x" {
  camera = "1,2,3"
  width  = 10
}`, "image size"},
		{"zero quantity", `model "x" { quantity = 0 }`, "quantity must be at least 1"},
		{"list parameter", `model "x" { params = { holes = [1, 2] } }`, "Invalid parameter value"},
		{"params not an object", `model "x" { params = "nope" }`, "map"},
		{"unknown function", `model "x" { params = { a = nope(1) } }`, "nope"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeHCL(t, t.TempDir(), "bad.hcl", tc.content)
			_, err := NewLoader().Load(context.Background(), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_MissingOrWrongPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := NewLoader().Load(context.Background(), filepath.Join(dir, "missing.hcl"))
	require.ErrorContains(t, err, "error accessing path")

	txt := writeHCL(t, dir, "tree.txt", "")
	_, err = NewLoader().Load(context.Background(), txt)
	require.ErrorContains(t, err, "is not an HCL file")

	writeHCL(t, dir, "nested/c.hcl", `model "x" {}`)
	_, err = NewLoader().Load(context.Background(), filepath.Join(dir, "nested"))
	require.ErrorContains(t, err, "is a directory")
}
