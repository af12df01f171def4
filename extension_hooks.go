package walletauth

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/conduit-ucpi/walletauth/core"
)

// ProviderPack bundles wallet providers an embedding application registers
// as one unit, typically everything a given wallet SDK contributes.
type ProviderPack struct {
	Name      string
	Providers []core.WalletProvider
}

// ObserverPack bundles session observers registered as one unit, such as an
// analytics module's listeners.
type ObserverPack struct {
	Name      string
	Observers []core.SessionObserver
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

type ExtensionHooks struct {
	mu sync.RWMutex

	providerPacks map[string]ProviderPack
	observerPacks map[string]ObserverPack
	bundles       map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		providerPacks: map[string]ProviderPack{},
		observerPacks: map[string]ObserverPack{},
		bundles:       map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterProviderPack(pack ProviderPack) error {
	if h == nil {
		return fmt.Errorf("walletauth: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("walletauth: provider pack name is required")
	}
	if len(pack.Providers) == 0 {
		return fmt.Errorf("walletauth: provider pack %q has no providers", name)
	}

	normalized := ProviderPack{
		Name:      name,
		Providers: append([]core.WalletProvider(nil), pack.Providers...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.providerPacks[name]; exists {
		return fmt.Errorf("walletauth: provider pack %q already registered", name)
	}
	h.providerPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterObserverPack(pack ObserverPack) error {
	if h == nil {
		return fmt.Errorf("walletauth: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("walletauth: observer pack name is required")
	}
	if len(pack.Observers) == 0 {
		return fmt.Errorf("walletauth: observer pack %q has no observers", name)
	}

	normalized := ObserverPack{
		Name:      name,
		Observers: append([]core.SessionObserver(nil), pack.Observers...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.observerPacks[name]; exists {
		return fmt.Errorf("walletauth: observer pack %q already registered", name)
	}
	h.observerPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("walletauth: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("walletauth: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("walletauth: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("walletauth: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

func (h *ExtensionHooks) ApplyProviderPacks(registry core.Registry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("walletauth: registry is required")
	}

	packs := h.ProviderPacks()
	for _, pack := range packs {
		for _, provider := range pack.Providers {
			if provider == nil {
				return fmt.Errorf("walletauth: provider pack %q contains nil provider", pack.Name)
			}
			if err := registry.Register(provider); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyObserverPacks subscribes every registered observer to the service in
// deterministic pack order.
func (h *ExtensionHooks) ApplyObserverPacks(service *core.Service) error {
	if h == nil {
		return nil
	}
	if service == nil {
		return fmt.Errorf("walletauth: service is required")
	}

	for _, pack := range h.ObserverPacks() {
		for _, observer := range pack.Observers {
			if observer == nil {
				return fmt.Errorf("walletauth: observer pack %q contains nil observer", pack.Name)
			}
			service.Subscribe(observer)
		}
	}
	return nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("walletauth: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) ProviderPacks() []ProviderPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.providerPacks))
	for name := range h.providerPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ProviderPack, 0, len(names))
	for _, name := range names {
		pack := h.providerPacks[name]
		out = append(out, ProviderPack{
			Name:      pack.Name,
			Providers: append([]core.WalletProvider(nil), pack.Providers...),
		})
	}
	return out
}

func (h *ExtensionHooks) ObserverPacks() []ObserverPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.observerPacks))
	for name := range h.observerPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ObserverPack, 0, len(names))
	for _, name := range names {
		pack := h.observerPacks[name]
		out = append(out, ObserverPack{
			Name:      pack.Name,
			Observers: append([]core.SessionObserver(nil), pack.Observers...),
		})
	}
	return out
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
