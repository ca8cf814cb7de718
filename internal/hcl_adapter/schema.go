package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
)

const (
	blockGroup   = "group"
	blockModel   = "model"
	blockDrawing = "drawing"
	blockImage   = "image"
)

// nodeSchema lists the blocks allowed at file level and inside a group.
// Walking body.Content with it keeps blocks in source order, which gohcl's
// per-type slices would lose.
var nodeSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: blockGroup, LabelNames: []string{"name"}},
		{Type: blockModel, LabelNames: []string{"name"}},
		{Type: blockDrawing, LabelNames: []string{"name"}},
		{Type: blockImage, LabelNames: []string{"name"}},
	},
}

// jobBlock holds the attributes shared by model and drawing blocks.
type jobBlock struct {
	FileName *string        `hcl:"file_name,optional"`
	Format   *string        `hcl:"format,optional"`
	Quantity *int           `hcl:"quantity,optional"`
	Params   hcl.Expression `hcl:"params,optional"`
}

// imageBlock is a jobBlock plus the camera and image size settings.
type imageBlock struct {
	FileName    *string        `hcl:"file_name,optional"`
	Format      *string        `hcl:"format,optional"`
	Quantity    *int           `hcl:"quantity,optional"`
	Params      hcl.Expression `hcl:"params,optional"`
	Camera      string         `hcl:"camera"`
	ColorScheme *string        `hcl:"color_scheme,optional"`
	Width       *int           `hcl:"width,optional"`
	Height      *int           `hcl:"height,optional"`
}
