package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/partforge/internal/ctxlog"
	"github.com/vk/partforge/internal/fsutil"
	"github.com/vk/partforge/internal/tree"
)

// Extensions are the file extensions this loader reads.
var Extensions = []string{".hcl"}

// Loader is the HCL-specific implementation of the tree.Loader interface.
type Loader struct{}

var _ tree.Loader = (*Loader)(nil)

// NewLoader creates a new HCL part-tree loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the HCL files named by paths and returns the top-level nodes
// of all files, in argument order and then source order.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]tree.Node, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	evalCtx := evalContext()

	var nodes []tree.Node
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		fileNodes, diags := l.decodeNodes(ctx, hclFile.Body, evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		nodes = append(nodes, fileNodes...)
	}

	logger.Debug("HCL loading complete.", "files", len(hclFiles), "top_level_nodes", len(nodes))
	return nodes, nil
}

// findAllHCLFiles checks that every path is an existing .hcl file and drops
// repeats. Directory discovery belongs to the caller.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory, not an HCL file", path)
		}
		if !fsutil.HasExtension(path, Extensions...) {
			return nil, fmt.Errorf("%s is not an HCL file", path)
		}
		clean := filepath.Clean(path)
		if _, wasSeen := seen[clean]; !wasSeen {
			seen[clean] = struct{}{}
			allFiles = append(allFiles, clean)
		}
	}
	return allFiles, nil
}
