package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/partforge/internal/settings"
)

// ScriptedPrompter answers prompts from per-label scripts. Answers are
// consumed in order; invalid ones are skipped like an operator retyping,
// and settings.QuitToken aborts.
type ScriptedPrompter struct {
	// Hold, when set, blocks every prompt until it is closed.
	Hold <-chan struct{}
	// Started receives each label as its prompt begins. Optional.
	Started chan<- string

	mu       sync.Mutex
	answers  map[string][]string
	requests []settings.Request
}

var _ settings.Prompter = (*ScriptedPrompter)(nil)

// NewScriptedPrompter returns a prompter with no answers.
func NewScriptedPrompter() *ScriptedPrompter {
	return &ScriptedPrompter{answers: make(map[string][]string)}
}

// Answer queues answers for prompts with the given label.
func (p *ScriptedPrompter) Answer(label string, answers ...string) *ScriptedPrompter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers[label] = append(p.answers[label], answers...)
	return p
}

// Prompt implements settings.Prompter.
func (p *ScriptedPrompter) Prompt(ctx context.Context, req settings.Request) (string, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.Started != nil {
		p.Started <- req.Label
	}
	if p.Hold != nil {
		select {
		case <-p.Hold:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	for {
		p.mu.Lock()
		queue := p.answers[req.Label]
		if len(queue) == 0 {
			p.mu.Unlock()
			return "", fmt.Errorf("%w: no scripted answer for %s", settings.ErrNoInput, req.Label)
		}
		answer := queue[0]
		p.answers[req.Label] = queue[1:]
		p.mu.Unlock()

		if answer == settings.QuitToken {
			return "", settings.ErrAborted
		}
		if _, err := req.Validate(answer); err == nil {
			return answer, nil
		}
	}
}

// Requests returns every prompt shown so far.
func (p *ScriptedPrompter) Requests() []settings.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]settings.Request(nil), p.requests...)
}

// MemoryStore is an in-memory settings.Backend that counts writes.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	saves   int
	deletes int
}

var _ settings.Backend = (*MemoryStore)(nil)

// NewMemoryStore returns a store holding initial.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

// Load implements settings.Backend.
func (s *MemoryStore) Load(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

// Save implements settings.Backend.
func (s *MemoryStore) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.saves++
	return nil
}

// Delete implements settings.Backend.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.deletes++
	return nil
}

// Saves is the number of Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Value returns one stored entry.
func (s *MemoryStore) Value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}
