package transport

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/conduit-ucpi/walletauth/core"
)

// AdapterFactory builds an adapter lazily from its raw config block.
type AdapterFactory func(config map[string]any) (core.TransportAdapter, error)

// Registry keeps the transport adapters an orchestrator can reach its
// backend through, keyed by kind.
type Registry struct {
	mu        sync.RWMutex
	adapters  map[string]core.TransportAdapter
	factories map[string]AdapterFactory
}

func NewRegistry() *Registry {
	return &Registry{
		adapters:  map[string]core.TransportAdapter{},
		factories: map[string]AdapterFactory{},
	}
}

// NewDefaultRegistry registers the adapters the module ships with. REST is
// the only transport the session backend speaks today.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	_ = registry.Register(NewRESTAdapter(nil))
	return registry
}

func (r *Registry) Register(adapter core.TransportAdapter) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if adapter == nil {
		return fmt.Errorf("transport: adapter is nil")
	}
	kind := normalizeKind(adapter.Kind())
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[kind]; exists {
		return fmt.Errorf("transport: adapter kind %q already registered", kind)
	}
	r.adapters[kind] = adapter
	return nil
}

func (r *Registry) RegisterFactory(kind string, factory AdapterFactory) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}
	if factory == nil {
		return fmt.Errorf("transport: adapter factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("transport: adapter factory kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Resolve returns the adapter for kind, building it from a registered
// factory on first use. An empty kind resolves to REST.
func (r *Registry) Resolve(kind string, config map[string]any) (core.TransportAdapter, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		kind = KindREST
	}

	r.mu.RLock()
	adapter, ok := r.adapters[kind]
	factory := r.factories[kind]
	r.mu.RUnlock()
	if ok {
		return adapter, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("transport: no adapter registered for kind %q", kind)
	}

	built, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("transport: build %s adapter: %w", kind, err)
	}
	if built == nil {
		return nil, fmt.Errorf("transport: factory for kind %q returned nil", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, exists := r.adapters[kind]; exists {
		return existing, nil
	}
	r.adapters[kind] = built
	return built, nil
}

func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	for kind := range r.adapters {
		seen[kind] = true
	}
	for kind := range r.factories {
		seen[kind] = true
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func normalizeKind(kind string) string {
	return strings.TrimSpace(strings.ToLower(kind))
}
