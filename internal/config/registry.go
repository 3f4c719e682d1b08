package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ZuhaMK/Flight-AI/pkg/provider/llm"
)

// ErrProviderNotRegistered is returned by [Registry.CreateLLM] for a name
// with no factory.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// LLMFactory builds a model backend from one providers entry.
type LLMFactory func(ProviderEntry) (llm.Provider, error)

// Registry maps provider names (case-insensitive) to factories. It is safe
// for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]LLMFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]LLMFactory{}}
}

// RegisterLLM binds name to factory, replacing any earlier binding.
func (r *Registry) RegisterLLM(name string, factory LLMFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// CreateLLM runs the factory registered for entry.Name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(entry.Name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, entry.Name)
	}
	p, err := factory(entry)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("config: factory for %q returned no provider", entry.Name)
	}
	return p, nil
}

// LLMNames returns the registered names, sorted.
func (r *Registry) LLMNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
