package tree

import "context"

// Loader reads part-tree files of one format and returns their top-level
// nodes, concatenated in file order.
type Loader interface {
	Load(ctx context.Context, paths ...string) ([]Node, error)
}
