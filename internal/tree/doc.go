// Package tree defines the format-agnostic part tree: groups that nest,
// and jobs that each describe one artifact to render. Loaders for concrete
// file formats (HCL, YAML) produce this model; Flatten turns it into the
// per-directory batches the executor consumes.
package tree
