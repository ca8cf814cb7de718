package settings

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/vk/partforge/internal/fsutil"
	"github.com/vk/partforge/internal/naming"
	"github.com/vk/partforge/internal/validation"
)

const (
	// DefaultImageWidth and DefaultImageHeight size image exports that do
	// not set their own.
	DefaultImageWidth  = 1600
	DefaultImageHeight = 900

	// DefaultColorScheme is used when nothing else is configured.
	DefaultColorScheme = "Cornfield"

	// DefinitionFileSuffix marks candidate definition files.
	DefinitionFileSuffix = "export map.scad"
)

// ColorSchemes are the renderer's built-in color schemes.
var ColorSchemes = []string{
	"Cornfield", "Metallic", "Sunset", "Starnight", "BeforeDawn", "Nature",
	"Daylight Gem", "Nocturnal Gem", "DeepOcean", "Solarized", "Tomorrow",
	"Tomorrow Night", "ClearSky", "Monotone",
}

// Environment supplies the process facts the standard definitions need.
type Environment struct {
	// Profile scopes the per-tree store keys, normally the tree file's base
	// name without extension.
	Profile string
	GOOS    string
	WorkDir string
	HomeDir string

	Naming      string
	ColorScheme string

	// DetectCapability reports whether the renderer at binary supports the
	// accelerated geometry backend.
	DetectCapability func(ctx context.Context, binary string) (bool, error)
	// ProjectRoots lists project root guesses, best first. Defaults to
	// asking git.
	ProjectRoots func(ctx context.Context, workDir string) []string
}

// StoreKey returns the durable-store key for a profile-scoped setting.
func StoreKey(profile, name string) string {
	if profile == "" {
		return name
	}
	return profile + "." + name
}

// StandardDefinitions returns the definitions for every key.
func StandardDefinitions(env Environment) []*Definition {
	if env.ProjectRoots == nil {
		env.ProjectRoots = GitProjectRoots
	}
	return []*Definition{
		{
			Key:      RendererPath,
			Label:    "OpenSCAD executable location",
			StoreKey: "openScadLocation",
			Rule: func(context.Context, Lookup) validation.Rule {
				return validation.Executable(env.GOOS)
			},
			Candidates: func(context.Context, Lookup) ([]string, error) {
				return []string{
					"openscad",
					`C:\Program Files\OpenSCAD (Nightly)\openscad.exe`,
					`C:\Program Files\OpenSCAD\openscad.exe`,
					"/Applications/OpenSCAD.app",
					"~/Applications/OpenSCAD.app",
				}, nil
			},
		},
		{
			Key:      ProjectRoot,
			Label:    "project root folder",
			StoreKey: "projectRoot",
			Rule: func(context.Context, Lookup) validation.Rule {
				return validation.Directory()
			},
			Candidates: func(ctx context.Context, _ Lookup) ([]string, error) {
				return env.ProjectRoots(ctx, env.WorkDir), nil
			},
		},
		{
			Key:       DefinitionFile,
			Label:     "export map file",
			StoreKey:  StoreKey(env.Profile, "exportMapFile"),
			DependsOn: []Key{ProjectRoot},
			Rule: func(ctx context.Context, lookup Lookup) validation.Rule {
				return validation.FileWithExtension(".scad", func() (string, error) {
					return lookup(ctx, ProjectRoot)
				})
			},
			Candidates: func(ctx context.Context, lookup Lookup) ([]string, error) {
				root, err := lookup(ctx, ProjectRoot)
				if err != nil {
					return nil, err
				}
				return fsutil.FindFilesBySuffix(root, DefinitionFileSuffix)
			},
		},
		{
			Key:       OutputDir,
			Label:     "output directory",
			StoreKey:  StoreKey(env.Profile, "outputDirectory"),
			DependsOn: []Key{ProjectRoot},
			Rule: func(context.Context, Lookup) validation.Rule {
				return validation.WritableParent()
			},
			Candidates: func(ctx context.Context, lookup Lookup) ([]string, error) {
				var out []string
				if env.HomeDir != "" {
					out = append(out, filepath.Join(env.HomeDir, "Desktop"))
				}
				root, err := lookup(ctx, ProjectRoot)
				if err != nil {
					return out, err
				}
				return append(out, root), nil
			},
		},
		{
			Key:   NamingStrategy,
			Label: "output naming strategy",
			Rule: func(context.Context, Lookup) validation.Rule {
				return validation.OneOf(naming.Options()...)
			},
			Candidates: staticCandidates(env.Naming, naming.SpacedTitleCase.String()),
		},
		{
			Key:   ColorScheme,
			Label: "image color scheme",
			Rule: func(context.Context, Lookup) validation.Rule {
				return validation.OneOf(ColorSchemes...)
			},
			Candidates: staticCandidates(env.ColorScheme, DefaultColorScheme),
		},
		{
			Key:       Capability,
			Label:     "accelerated renderer support (true/false)",
			DependsOn: []Key{RendererPath},
			Rule: func(context.Context, Lookup) validation.Rule {
				return validation.OneOf("true", "false")
			},
			Candidates: func(ctx context.Context, lookup Lookup) ([]string, error) {
				if env.DetectCapability == nil {
					return []string{"false"}, nil
				}
				binary, err := lookup(ctx, RendererPath)
				if err != nil {
					return nil, err
				}
				ok, err := env.DetectCapability(ctx, binary)
				if err != nil {
					return []string{"false"}, fmt.Errorf("probing %s: %w", binary, err)
				}
				return []string{strconv.FormatBool(ok)}, nil
			},
		},
	}
}

// staticCandidates offers the configured value when set, otherwise the
// fallback. An invalid configured value is never replaced silently.
func staticCandidates(configured, fallback string) func(context.Context, Lookup) ([]string, error) {
	return func(context.Context, Lookup) ([]string, error) {
		if strings.TrimSpace(configured) != "" {
			return []string{configured}, nil
		}
		return []string{fallback}, nil
	}
}

// GitProjectRoots guesses the project root: the enclosing superproject if
// workDir is inside a submodule, the repository top level, and finally
// workDir itself.
func GitProjectRoots(ctx context.Context, workDir string) []string {
	var roots []string
	for _, flag := range []string{"--show-superproject-working-tree", "--show-toplevel"} {
		cmd := exec.CommandContext(ctx, "git", "rev-parse", flag)
		cmd.Dir = workDir
		out, err := cmd.Output()
		if err != nil {
			continue
		}
		if root := strings.TrimSpace(string(out)); root != "" {
			roots = append(roots, root)
		}
	}
	if workDir != "" {
		roots = append(roots, workDir)
	}
	return roots
}

// EnvironmentFromOS fills the process facts from the running system.
func EnvironmentFromOS(profile string) Environment {
	wd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	return Environment{
		Profile: profile,
		GOOS:    runtime.GOOS,
		WorkDir: wd,
		HomeDir: home,
	}
}
