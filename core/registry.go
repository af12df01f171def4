package core

import (
	"fmt"
	"sort"
	"sync"
)

type WalletProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]WalletProvider
}

func NewWalletProviderRegistry() *WalletProviderRegistry {
	return &WalletProviderRegistry{providers: make(map[string]WalletProvider)}
}

func (r *WalletProviderRegistry) Register(provider WalletProvider) error {
	if provider == nil {
		return fmt.Errorf("core: provider is nil")
	}
	name := normalizeProviderName(provider.Name())
	if name == "" {
		return fmt.Errorf("core: provider name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("core: provider already registered: %s", name)
	}
	r.providers[name] = provider
	return nil
}

func (r *WalletProviderRegistry) Get(name string) (WalletProvider, bool) {
	name = normalizeProviderName(name)
	if name == "" {
		return nil, false
	}
	r.mu.RLock()
	provider, ok := r.providers[name]
	r.mu.RUnlock()
	return provider, ok
}

func (r *WalletProviderRegistry) List() []WalletProvider {
	r.mu.RLock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	providers := make([]WalletProvider, 0, len(names))
	r.mu.RLock()
	for _, name := range names {
		providers = append(providers, r.providers[name])
	}
	r.mu.RUnlock()
	return providers
}
