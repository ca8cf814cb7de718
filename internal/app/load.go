package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/partforge/internal/ctxlog"
	"github.com/vk/partforge/internal/fsutil"
	"github.com/vk/partforge/internal/hcl_adapter"
	"github.com/vk/partforge/internal/tree"
	"github.com/vk/partforge/internal/yaml_adapter"
)

// format binds tree file extensions to the loader that reads them.
type format struct {
	extensions []string
	loader     tree.Loader
}

// coreFormats is the list of tree formats compiled into the binary.
func coreFormats() []format {
	return []format{
		{extensions: hcl_adapter.Extensions, loader: hcl_adapter.NewLoader()},
		{extensions: yaml_adapter.Extensions, loader: yaml_adapter.NewLoader()},
	}
}

func (a *App) extensions() []string {
	var exts []string
	for _, f := range a.formats {
		exts = append(exts, f.extensions...)
	}
	return exts
}

func (a *App) loaderFor(path string) (tree.Loader, bool) {
	for _, f := range a.formats {
		if fsutil.HasExtension(path, f.extensions...) {
			return f.loader, true
		}
	}
	return nil, false
}

// treeFiles expands the configured paths into tree files. Directories are
// searched recursively and contribute their files in lexical order.
func (a *App) treeFiles() ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	for _, path := range a.cfg.TreePaths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		found := []string{filepath.Clean(path)}
		if info.IsDir() {
			if found, err = fsutil.FindFilesByExtension(path, a.extensions()...); err != nil {
				return nil, err
			}
		} else if _, ok := a.loaderFor(path); !ok {
			return nil, fmt.Errorf("%s is not a tree file (want one of %s)", path, strings.Join(a.extensions(), ", "))
		}
		for _, f := range found {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				files = append(files, f)
			}
		}
	}
	return files, nil
}

// loadTree reads every tree file and concatenates their top-level nodes.
func (a *App) loadTree(ctx context.Context) ([]tree.Node, error) {
	logger := ctxlog.FromContext(ctx)
	files, err := a.treeFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no tree files found in %s", strings.Join(a.cfg.TreePaths, ", "))
	}

	var nodes []tree.Node
	for _, file := range files {
		loader, _ := a.loaderFor(file)
		fileNodes, err := loader.Load(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to load tree: %w", err)
		}
		nodes = append(nodes, fileNodes...)
	}
	logger.Debug("Tree loaded.", "files", len(files), "top_level_nodes", len(nodes))
	return nodes, nil
}

// Profile names the settings scope of this run: the first tree path's base
// name without its extension.
func (a *App) Profile() string {
	base := filepath.Base(filepath.Clean(a.cfg.TreePaths[0]))
	if _, ok := a.loaderFor(base); ok {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}
