package settings

import (
	"context"

	"github.com/vk/partforge/internal/validation"
)

// Key names one setting.
type Key string

const (
	RendererPath   Key = "renderer-binary-path"
	ProjectRoot    Key = "project-root-directory"
	DefinitionFile Key = "export-definition-file-path"
	OutputDir      Key = "output-directory"
	NamingStrategy Key = "naming-strategy"
	ColorScheme    Key = "default-color-scheme"
	Capability     Key = "renderer-capability-flag"
)

// Lookup resolves another key; rules and candidate lists use it to reach
// the settings they depend on.
type Lookup func(ctx context.Context, key Key) (string, error)

// Definition describes how one key is validated, where its defaults come
// from and whether it is persisted.
type Definition struct {
	Key Key

	// Label is shown in prompts.
	Label string

	// StoreKey is the durable-store entry. Empty means not persisted.
	StoreKey string

	// DependsOn keys are resolved before this one.
	DependsOn []Key

	// Rule builds the validation rule. It may consult dependencies through
	// lookup.
	Rule func(ctx context.Context, lookup Lookup) validation.Rule

	// Candidates lists default values in preference order. Optional.
	Candidates func(ctx context.Context, lookup Lookup) ([]string, error)
}

// Persisted reports whether the key is written to the durable store.
func (d *Definition) Persisted() bool {
	return d.StoreKey != ""
}
