package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vk/partforge/internal/naming"
)

// Settings is the resolved snapshot handed to the export pipeline.
type Settings struct {
	RendererPath   string
	ProjectRoot    string
	DefinitionFile string
	OutputDir      string
	Naming         naming.Strategy
	ColorScheme    string
	// Accelerated is true when the renderer supports the manifold backend.
	Accelerated bool

	ImageWidth  int
	ImageHeight int
}

// Settings resolves every defined key concurrently and assembles the
// snapshot. The first failure is returned; a fatal one aborts the resolver
// so that keys still waiting give up too.
func (r *Resolver) Settings(ctx context.Context) (*Settings, error) {
	var (
		mu     sync.Mutex
		values = make(map[Key]string, len(r.order))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range r.order {
		g.Go(func() error {
			value, err := r.Resolve(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			values[key] = value
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r.assemble(values)
}

func (r *Resolver) assemble(values map[Key]string) (*Settings, error) {
	s := &Settings{
		RendererPath:   values[RendererPath],
		ProjectRoot:    values[ProjectRoot],
		DefinitionFile: values[DefinitionFile],
		OutputDir:      values[OutputDir],
		ColorScheme:    values[ColorScheme],
		ImageWidth:     r.imageWidth,
		ImageHeight:    r.imageHeight,
	}
	if v, ok := values[NamingStrategy]; ok {
		strategy, err := naming.ParseStrategy(v)
		if err != nil {
			return nil, err
		}
		s.Naming = strategy
	}
	if v, ok := values[Capability]; ok {
		accelerated, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("settings: %s: %w", Capability, err)
		}
		s.Accelerated = accelerated
	}
	return s, nil
}
