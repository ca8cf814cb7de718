package yaml_adapter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/partforge/internal/tree"
)

var (
	kindKeys  = []string{"group", "model", "drawing", "image"}
	jobKeys   = []string{"file_name", "format", "quantity", "params"}
	imageKeys = []string{"camera", "color_scheme", "width", "height"}
)

// jobFields mirrors the optional job attributes.
type jobFields struct {
	FileName    *string `yaml:"file_name"`
	Format      *string `yaml:"format"`
	Quantity    *int    `yaml:"quantity"`
	Camera      string  `yaml:"camera"`
	ColorScheme string  `yaml:"color_scheme"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
}

type decoder struct {
	file string
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d:%d: %s", d.file, n.Line, n.Column, fmt.Sprintf(format, args...))
}

func (d *decoder) nodeList(n *yaml.Node) ([]tree.Node, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list of nodes")
	}
	nodes := make([]tree.Node, 0, len(n.Content))
	for _, item := range n.Content {
		node, err := d.node(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (d *decoder) node(n *yaml.Node) (tree.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping with one of: %s", strings.Join(kindKeys, ", "))
	}

	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	var kindKey string
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i].Value, n.Content[i+1]
		if _, dup := fields[key]; dup {
			return nil, d.errorf(n.Content[i], "duplicate key %q", key)
		}
		fields[key] = value
		if slices.Contains(kindKeys, key) {
			if kindKey != "" {
				return nil, d.errorf(n.Content[i], "node has both %q and %q", kindKey, key)
			}
			kindKey = key
		}
	}
	if kindKey == "" {
		return nil, d.errorf(n, "node needs one of: %s", strings.Join(kindKeys, ", "))
	}

	nameNode := fields[kindKey]
	if nameNode.Kind != yaml.ScalarNode {
		return nil, d.errorf(nameNode, "%s name must be a string", kindKey)
	}
	name := nameNode.Value

	allowed := append([]string{kindKey}, jobKeys...)
	switch kindKey {
	case "group":
		allowed = []string{kindKey, "contents"}
	case "image":
		allowed = append(allowed, imageKeys...)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if key := n.Content[i].Value; !slices.Contains(allowed, key) {
			return nil, d.errorf(n.Content[i], "unknown key %q in %s %q", key, kindKey, name)
		}
	}

	if kindKey == "group" {
		return d.group(name, fields["contents"])
	}
	return d.job(n, kindKey, name, fields)
}

func (d *decoder) group(name string, contents *yaml.Node) (tree.Node, error) {
	if contents == nil || (contents.Kind == yaml.ScalarNode && contents.Tag == "!!null") {
		return tree.NewGroup(name), nil
	}
	children, err := d.nodeList(contents)
	if err != nil {
		return nil, err
	}
	return tree.NewGroup(name, children...), nil
}

func (d *decoder) job(n *yaml.Node, kindKey, name string, fields map[string]*yaml.Node) (tree.Node, error) {
	kind, _ := tree.ParseKind(kindKey)

	var f jobFields
	if err := n.Decode(&f); err != nil {
		return nil, d.errorf(n, "%s %q: %v", kindKey, name, err)
	}
	params, err := d.params(fields["params"])
	if err != nil {
		return nil, err
	}

	opts := []tree.JobOption{tree.WithParams(params)}
	if f.FileName != nil {
		opts = append(opts, tree.WithFileName(*f.FileName))
	}
	if f.Format != nil {
		opts = append(opts, tree.WithFormat(*f.Format))
	}
	if f.Quantity != nil {
		opts = append(opts, tree.WithQuantity(*f.Quantity))
	}
	if kind == tree.KindImage {
		opts = append(opts, tree.WithImage(tree.ImageOptions{
			Camera:      f.Camera,
			ColorScheme: f.ColorScheme,
			Width:       f.Width,
			Height:      f.Height,
		}))
	}

	job, err := tree.NewJob(name, kind, opts...)
	if err != nil {
		return nil, d.errorf(n, "%v", err)
	}
	return job, nil
}

// params reads the params mapping in document order.
func (d *decoder) params(n *yaml.Node) (*tree.Params, error) {
	params := tree.NewParams()
	if n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null") {
		return params, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "params must be a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		v, err := d.scalar(value)
		if err != nil {
			return nil, err
		}
		if err := params.Set(key.Value, v); err != nil {
			return nil, d.errorf(key, "%v", err)
		}
	}
	return params, nil
}

func (d *decoder) scalar(n *yaml.Node) (cty.Value, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return cty.NilVal, d.errorf(n, "parameter values must be numbers, strings or booleans")
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
		v, err := cty.ParseNumberVal(strings.ReplaceAll(n.Value, "_", ""))
		if err != nil {
			var f float64
			if decErr := n.Decode(&f); decErr != nil {
				return cty.NilVal, d.errorf(n, "invalid number %q", n.Value)
			}
			return cty.NumberFloatVal(f), nil
		}
		return v, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return cty.NilVal, d.errorf(n, "invalid boolean %q", n.Value)
		}
		return cty.BoolVal(b), nil
	case "!!null":
		return cty.NilVal, d.errorf(n, "parameter has no value")
	default:
		return cty.StringVal(n.Value), nil
	}
}
