// Package yaml_adapter loads part trees written in YAML.
//
// A file is a list of nodes. Each node names itself with exactly one of the
// keys group, model, drawing or image; groups list their children under
// contents and jobs carry the same fields as the HCL format:
//
//	- group: Parts
//	  contents:
//	    - model: rear_axle
//	      format: 3mf
//	      quantity: 2
//	      params:
//	        length: 120
//	        finish: matte
package yaml_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vk/partforge/internal/ctxlog"
	"github.com/vk/partforge/internal/fsutil"
	"github.com/vk/partforge/internal/tree"
)

// Extensions are the file extensions this loader reads.
var Extensions = []string{".yaml", ".yml"}

// Loader is the YAML implementation of tree.Loader.
type Loader struct{}

var _ tree.Loader = (*Loader)(nil)

// NewLoader creates a new YAML part-tree loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the YAML files named by paths and returns the top-level nodes
// in argument order.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]tree.Node, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := findYAMLFiles(paths)
	if err != nil {
		return nil, err
	}

	var nodes []tree.Node
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}
		fileNodes, err := Parse(file, data)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, fileNodes...)
	}

	logger.Debug("YAML loading complete.", "files", len(files), "top_level_nodes", len(nodes))
	return nodes, nil
}

// Parse decodes one YAML document. name is used in error messages.
func Parse(name string, data []byte) ([]tree.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", name, err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	d := &decoder{file: name}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	return d.nodeList(root)
}

func findYAMLFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory, not a YAML file", path)
		}
		if !fsutil.HasExtension(path, Extensions...) {
			return nil, fmt.Errorf("%s is not a YAML file", path)
		}
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; !ok {
			seen[clean] = struct{}{}
			files = append(files, clean)
		}
	}
	return files, nil
}
