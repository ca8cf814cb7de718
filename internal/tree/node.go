package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidJob is wrapped by every job construction error.
var ErrInvalidJob = errors.New("invalid job")

// Node is either a *Group or a *Job.
type Node interface {
	isNode()
}

// Group is a named folder of child nodes. Its name becomes one segment of
// the output path.
type Group struct {
	Name     string
	Children []Node
}

func (*Group) isNode() {}

// NewGroup builds a group from its children.
func NewGroup(name string, children ...Node) *Group {
	return &Group{Name: name, Children: children}
}

// Kind is the artifact family a job renders.
type Kind int

const (
	KindModel Kind = iota
	KindDrawing
	KindImage
)

var kindNames = map[Kind]string{
	KindModel:   "model",
	KindDrawing: "drawing",
	KindImage:   "image",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a block or key name ("model", "drawing", "image") to a Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Formats lists the output formats allowed for the kind; the first is the
// default.
func (k Kind) Formats() []string {
	switch k {
	case KindModel:
		return []string{"stl", "3mf", "off", "amf"}
	case KindDrawing:
		return []string{"dxf", "svg"}
	case KindImage:
		return []string{"png"}
	}
	return nil
}

// ImageOptions carries the image-only fields of a job. Zero values mean
// "use the process default".
type ImageOptions struct {
	Camera      string
	ColorScheme string
	Width       int
	Height      int
}

// Job is one artifact to render: a logical part name passed to the
// definition file, the base of its output file name, the output format, how
// many identical copies to produce and the parameter overrides.
type Job struct {
	Name     string
	FileName string
	Kind     Kind
	Format   string
	Quantity int
	Params   *Params
	Image    *ImageOptions
}

func (*Job) isNode() {}

// JobOption customizes a job built by NewJob.
type JobOption func(*Job) error

// WithFileName overrides the output base name. Empty keeps the default.
func WithFileName(name string) JobOption {
	return func(j *Job) error {
		if name = strings.TrimSpace(name); name != "" {
			j.FileName = name
		}
		return nil
	}
}

// WithFormat selects one of the kind's formats.
func WithFormat(format string) JobOption {
	return func(j *Job) error {
		if format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), ".")); format != "" {
			j.Format = format
		}
		return nil
	}
}

// WithQuantity sets the number of copies.
func WithQuantity(n int) JobOption {
	return func(j *Job) error {
		j.Quantity = n
		return nil
	}
}

// WithParams sets parameter overrides. The job's own "part" entry is
// applied on top.
func WithParams(p *Params) JobOption {
	return func(j *Job) error {
		if p != nil {
			j.Params = p.Clone()
		}
		return nil
	}
}

// WithImage sets the image options; only valid for image jobs.
func WithImage(opts ImageOptions) JobOption {
	return func(j *Job) error {
		j.Image = &opts
		return nil
	}
}

// NewJob builds a validated job and injects the part=name parameter.
func NewJob(name string, kind Kind, opts ...JobOption) (*Job, error) {
	name = strings.TrimSpace(name)
	j := &Job{
		Name:     name,
		FileName: name,
		Kind:     kind,
		Quantity: 1,
		Params:   NewParams(),
	}
	if formats := kind.Formats(); len(formats) > 0 {
		j.Format = formats[0]
	}
	for _, opt := range opts {
		if err := opt(j); err != nil {
			return nil, err
		}
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	if err := j.Params.Set("part", StringValue(j.Name)); err != nil {
		return nil, err
	}
	return j, nil
}

// Validate checks the job invariants.
func (j *Job) Validate() error {
	if j.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidJob)
	}
	formats := j.Kind.Formats()
	if formats == nil {
		return fmt.Errorf("%w: %s: unknown kind %v", ErrInvalidJob, j.Name, j.Kind)
	}
	if j.Quantity < 1 {
		return fmt.Errorf("%w: %s: quantity must be at least 1, got %d", ErrInvalidJob, j.Name, j.Quantity)
	}
	if !slices.Contains(formats, j.Format) {
		return fmt.Errorf("%w: %s: format %q is not valid for a %s (want one of %s)",
			ErrInvalidJob, j.Name, j.Format, j.Kind, strings.Join(formats, ", "))
	}
	if j.Kind == KindImage {
		if j.Image == nil || strings.TrimSpace(j.Image.Camera) == "" {
			return fmt.Errorf("%w: %s: image jobs need a camera position", ErrInvalidJob, j.Name)
		}
		if j.Image.Width < 0 || j.Image.Height < 0 || (j.Image.Width == 0) != (j.Image.Height == 0) {
			return fmt.Errorf("%w: %s: image size must set both width and height to positive values", ErrInvalidJob, j.Name)
		}
	} else if j.Image != nil {
		return fmt.Errorf("%w: %s: image options are only valid for image jobs", ErrInvalidJob, j.Name)
	}
	return nil
}

// Extension is the output file extension including the dot.
func (j *Job) Extension() string {
	return "." + j.Format
}
