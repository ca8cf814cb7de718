// This file translates HCL blocks into the format-agnostic part tree
// defined in the tree package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/partforge/internal/ctxlog"
	"github.com/vk/partforge/internal/tree"
)

// decodeNodes decodes the group and job blocks of body in source order.
func (l *Loader) decodeNodes(ctx context.Context, body hcl.Body, evalCtx *hcl.EvalContext) ([]tree.Node, hcl.Diagnostics) {
	content, diags := body.Content(nodeSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	nodes := make([]tree.Node, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		node, blockDiags := l.decodeNode(ctx, block, evalCtx)
		diags = append(diags, blockDiags...)
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, diags
}

func (l *Loader) decodeNode(ctx context.Context, block *hcl.Block, evalCtx *hcl.EvalContext) (tree.Node, hcl.Diagnostics) {
	name := block.Labels[0]
	logger := ctxlog.FromContext(ctx).With("block", block.Type, "name", name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL block to part tree.")

	switch block.Type {
	case blockGroup:
		children, diags := l.decodeNodes(ctx, block.Body, evalCtx)
		return tree.NewGroup(name, children...), diags

	case blockImage:
		var b imageBlock
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &b); diags.HasErrors() {
			return nil, diags
		}
		params, diags := decodeParams(ctx, b.Params, evalCtx)
		if diags.HasErrors() {
			return nil, diags
		}
		img := tree.ImageOptions{Camera: b.Camera}
		if b.ColorScheme != nil {
			img.ColorScheme = *b.ColorScheme
		}
		if b.Width != nil {
			img.Width = *b.Width
		}
		if b.Height != nil {
			img.Height = *b.Height
		}
		opts := append(commonOptions(b.FileName, b.Format, b.Quantity, params), tree.WithImage(img))
		return newJob(block, name, tree.KindImage, opts)

	default:
		kind, _ := tree.ParseKind(block.Type)
		var b jobBlock
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &b); diags.HasErrors() {
			return nil, diags
		}
		params, diags := decodeParams(ctx, b.Params, evalCtx)
		if diags.HasErrors() {
			return nil, diags
		}
		return newJob(block, name, kind, commonOptions(b.FileName, b.Format, b.Quantity, params))
	}
}

func commonOptions(fileName, format *string, quantity *int, params *tree.Params) []tree.JobOption {
	opts := []tree.JobOption{tree.WithParams(params)}
	if fileName != nil {
		opts = append(opts, tree.WithFileName(*fileName))
	}
	if format != nil {
		opts = append(opts, tree.WithFormat(*format))
	}
	if quantity != nil {
		opts = append(opts, tree.WithQuantity(*quantity))
	}
	return opts
}

func newJob(block *hcl.Block, name string, kind tree.Kind, opts []tree.JobOption) (tree.Node, hcl.Diagnostics) {
	job, err := tree.NewJob(name, kind, opts...)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Invalid %s block", block.Type),
			Detail:   err.Error(),
			Subject:  block.DefRange.Ptr(),
		}}
	}
	return job, nil
}

// decodeParams reads the params object in source order.
func decodeParams(ctx context.Context, expr hcl.Expression, evalCtx *hcl.EvalContext) (*tree.Params, hcl.Diagnostics) {
	params := tree.NewParams()
	if !isExprDefined(ctx, expr, "params") {
		return params, nil
	}

	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	for _, pair := range pairs {
		key, keyDiags := pair.Key.Value(evalCtx)
		diags = append(diags, keyDiags...)
		if keyDiags.HasErrors() {
			continue
		}
		if key.IsNull() || !key.IsKnown() || !key.Type().Equals(cty.String) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid parameter name",
				Detail:   "Parameter names must be strings.",
				Subject:  pair.Key.Range().Ptr(),
			})
			continue
		}

		val, valDiags := pair.Value.Value(evalCtx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		if err := params.Set(key.AsString(), val); err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid parameter value",
				Detail:   err.Error(),
				Subject:  pair.Value.Range().Ptr(),
			})
		}
	}
	return params, diags
}
