package renderer

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/partforge/internal/settings"
	"github.com/vk/partforge/internal/tree"
)

// Capability flags understood by OpenSCAD.
const (
	ManifoldFlag = "--enable=manifold"
	RenderFlag   = "--render=true"
)

// PreviewQuality replaces full rendering for images when the accelerated
// backend is missing.
var PreviewQuality = []string{"-D$fs=0.4", "-D$fa=0.8"}

// Args returns the full argument vector, binary first, that renders job to
// output.
func Args(s *settings.Settings, job *tree.Job, output string) []string {
	args := []string{s.RendererPath, "-o" + output, s.DefinitionFile}

	job.Params.Each(func(name string, v cty.Value) {
		args = append(args, "-D"+name+"="+FormatValue(v))
	})

	if job.Kind == tree.KindImage {
		args = append(args, imageArgs(s, job.Image)...)
	}
	if s.Accelerated {
		args = append(args, ManifoldFlag)
	}
	return args
}

func imageArgs(s *settings.Settings, img *tree.ImageOptions) []string {
	scheme := s.ColorScheme
	width, height := s.ImageWidth, s.ImageHeight
	if img.ColorScheme != "" {
		scheme = img.ColorScheme
	}
	if img.Width > 0 && img.Height > 0 {
		width, height = img.Width, img.Height
	}

	args := []string{
		"--camera=" + img.Camera,
		"--colorscheme=" + scheme,
		fmt.Sprintf("--imgsize=%d,%d", width, height),
	}
	if s.Accelerated {
		return append(args, RenderFlag)
	}
	return append(args, PreviewQuality...)
}

// FormatValue renders a parameter the way the definition language reads
// it: numbers bare, strings double-quoted, bools as true or false.
func FormatValue(v cty.Value) string {
	switch {
	case v.Type().Equals(cty.Number):
		return tree.FormatNumber(v)
	case v.Type().Equals(cty.Bool):
		if v.True() {
			return "true"
		}
		return "false"
	default:
		return quote(v.AsString())
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}
