package settings

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/vk/partforge/internal/ctxlog"
	"github.com/vk/partforge/internal/validation"
)

// entry holds the memoized value of one key. lock is a one-slot semaphore so
// waiters can also watch for cancellation and abort.
type entry struct {
	def      *Definition
	lock     chan struct{}
	resolved atomic.Bool
	value    string
}

// Resolver resolves setting keys lazily and at most once each.
type Resolver struct {
	entries map[Key]*entry
	order   []Key

	store    Backend
	prompter Prompter

	confirmDefaults bool
	imageWidth      int
	imageHeight     int

	writeMu sync.Mutex
	prompts chan struct{}

	abortOnce sync.Once
	aborted   chan struct{}
	abortErr  error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConfirmDefaults makes persisted keys show their menu even when a
// default candidate validates.
func WithConfirmDefaults(confirm bool) Option {
	return func(r *Resolver) { r.confirmDefaults = confirm }
}

// WithImageSize sets the default image size carried in Settings.
func WithImageSize(width, height int) Option {
	return func(r *Resolver) {
		r.imageWidth = width
		r.imageHeight = height
	}
}

// NewResolver builds a resolver over the given definitions. Keys are
// reported by Settings in definition order. It panics on duplicate keys and
// on DependsOn lists that are dangling or cyclic.
func NewResolver(store Backend, prompter Prompter, defs []*Definition, opts ...Option) *Resolver {
	r := &Resolver{
		entries:     make(map[Key]*entry, len(defs)),
		store:       store,
		prompter:    prompter,
		imageWidth:  DefaultImageWidth,
		imageHeight: DefaultImageHeight,
		prompts:     make(chan struct{}, 1),
		aborted:     make(chan struct{}),
	}
	for _, def := range defs {
		if _, dup := r.entries[def.Key]; dup {
			panic(fmt.Sprintf("settings: duplicate definition for %q", def.Key))
		}
		r.entries[def.Key] = &entry{def: def, lock: make(chan struct{}, 1)}
		r.order = append(r.order, def.Key)
	}
	if err := checkDependencies(r.order, r.entries); err != nil {
		panic("settings: " + err.Error())
	}
	return r
}

// Keys returns the defined keys in definition order.
func (r *Resolver) Keys() []Key {
	return slices.Clone(r.order)
}

// Definition returns the definition for key, or nil.
func (r *Resolver) Definition(key Key) *Definition {
	if e, ok := r.entries[key]; ok {
		return e.def
	}
	return nil
}

// Abort fails every pending and future resolution with err. Errors that are
// not already fatal are wrapped in ErrAborted.
func (r *Resolver) Abort(err error) {
	r.abortOnce.Do(func() {
		if !IsFatal(err) {
			err = fmt.Errorf("%w: %w", ErrAborted, err)
		}
		r.abortErr = err
		close(r.aborted)
	})
}

// Aborted is closed once the resolver has been aborted.
func (r *Resolver) Aborted() <-chan struct{} {
	return r.aborted
}

// Resolve returns the value of key, resolving it on first use. Concurrent
// first callers share a single resolution.
func (r *Resolver) Resolve(ctx context.Context, key Key) (string, error) {
	e, ok := r.entries[key]
	if !ok {
		return "", fmt.Errorf("settings: unknown key %q", key)
	}
	if e.resolved.Load() {
		return e.value, nil
	}

	if err := r.acquire(ctx, e.lock); err != nil {
		return "", err
	}
	defer func() { <-e.lock }()

	if e.resolved.Load() {
		return e.value, nil
	}

	value, err := r.resolve(ctx, e.def)
	if err != nil {
		if IsFatal(err) {
			r.Abort(err)
			return "", r.abortErr
		}
		return "", fmt.Errorf("resolving %s: %w", key, err)
	}
	e.value = value
	e.resolved.Store(true)
	return value, nil
}

// acquire takes a one-slot semaphore unless the context ends or the
// resolver is aborted first.
func (r *Resolver) acquire(ctx context.Context, sem chan struct{}) error {
	if err := r.abortedErr(); err != nil {
		return err
	}
	select {
	case sem <- struct{}{}:
	case <-r.aborted:
		return r.abortErr
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := r.abortedErr(); err != nil {
		<-sem
		return err
	}
	return nil
}

func (r *Resolver) abortedErr() error {
	select {
	case <-r.aborted:
		return r.abortErr
	default:
		return nil
	}
}

func (r *Resolver) resolve(ctx context.Context, def *Definition) (string, error) {
	logger := ctxlog.FromContext(ctx).With("setting", string(def.Key))

	for _, dep := range def.DependsOn {
		if _, err := r.Resolve(ctx, dep); err != nil {
			return "", err
		}
	}

	rule := validation.NotBlank()
	if def.Rule != nil {
		rule = validation.All(rule, def.Rule(ctx, r.Resolve))
	}

	var working string
	if def.Persisted() {
		values, err := r.store.Load(ctx)
		if err != nil {
			logger.Warn("Settings store unreadable, ignoring persisted values.", "error", err)
		}
		working = values[def.StoreKey]
		if working != "" {
			value, err := rule(working)
			if err == nil {
				logger.Debug("Using persisted value.", "value", value)
				if value != working {
					r.persist(ctx, def, value)
				}
				return value, nil
			}
			if !validation.IsFailure(err) {
				return "", err
			}
			logger.Info("Persisted value is no longer valid.", "reason", err)
		}
	}

	valid, err := r.validCandidates(ctx, def, rule)
	if err != nil {
		return "", err
	}

	var value string
	if len(valid) > 0 && !(r.confirmDefaults && def.Persisted()) {
		value = valid[0]
		logger.Debug("Using default value.", "value", value)
	} else {
		if working == "" && len(valid) > 0 {
			working = valid[0]
		}
		value, err = r.prompt(ctx, def, rule, valid, working)
		if err != nil {
			return "", err
		}
	}

	if def.Persisted() {
		r.persist(ctx, def, value)
	}
	return value, nil
}

func (r *Resolver) validCandidates(ctx context.Context, def *Definition, rule validation.Rule) ([]string, error) {
	if def.Candidates == nil {
		return nil, nil
	}
	candidates, err := def.Candidates(ctx, r.Resolve)
	if err != nil {
		if IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		ctxlog.FromContext(ctx).Warn("Could not list default values.", "setting", string(def.Key), "error", err)
	}
	var valid []string
	for _, c := range candidates {
		value, err := rule(c)
		if err != nil {
			if !validation.IsFailure(err) {
				return nil, err
			}
			continue
		}
		if !slices.Contains(valid, value) {
			valid = append(valid, value)
		}
	}
	return valid, nil
}

func (r *Resolver) prompt(ctx context.Context, def *Definition, rule validation.Rule, options []string, working string) (string, error) {
	if err := r.acquire(ctx, r.prompts); err != nil {
		return "", err
	}
	defer func() { <-r.prompts }()

	answer, err := r.prompter.Prompt(ctx, Request{
		Label:    def.Label,
		Options:  options,
		Current:  working,
		Validate: rule,
	})
	if err != nil {
		// Abort before releasing the prompt slot so no queued key prompts.
		if IsFatal(err) {
			r.Abort(err)
		}
		return "", err
	}
	value, err := rule(answer)
	if err != nil {
		return "", fmt.Errorf("prompt returned an invalid value: %w", err)
	}
	return value, nil
}

// persist writes value under the store lock. A failed write is logged; the
// value stays in effect for this run.
func (r *Resolver) persist(ctx context.Context, def *Definition, value string) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.store.Save(ctx, def.StoreKey, value); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not persist setting.",
			"setting", string(def.Key), "store_key", def.StoreKey, "error", err)
	}
}

// Forget deletes the persisted value of key. The in-memory value, if any,
// is kept for the current process.
func (r *Resolver) Forget(ctx context.Context, key Key) error {
	def := r.Definition(key)
	if def == nil {
		return fmt.Errorf("settings: unknown key %q", key)
	}
	if !def.Persisted() {
		return fmt.Errorf("settings: %q is not persisted", key)
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.store.Delete(ctx, def.StoreKey)
}
