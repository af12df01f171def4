package walletauth

import (
	"context"
	"testing"

	"github.com/conduit-ucpi/walletauth/core"
)

type stubWalletProvider struct {
	name string
}

func (p *stubWalletProvider) Name() string                     { return p.name }
func (p *stubWalletProvider) Initialize(context.Context) error { return nil }
func (p *stubWalletProvider) Disconnect(context.Context) error { return nil }
func (p *stubWalletProvider) Connected() bool                  { return false }
func (p *stubWalletProvider) Address() string                  { return "" }
func (p *stubWalletProvider) Capabilities() core.CapabilitySet { return core.CapabilitySet{} }

func (p *stubWalletProvider) Connect(context.Context, core.ConnectHint) (core.ConnectResult, error) {
	return core.ConnectResult{}, nil
}

func (p *stubWalletProvider) SignMessage(context.Context, string) (string, error) {
	return "", nil
}

func (p *stubWalletProvider) IdentityToken(context.Context) (string, error) {
	return "", nil
}

func TestExtensionHooksProviderPacks(t *testing.T) {
	hooks := NewExtensionHooks()

	if err := hooks.RegisterProviderPack(ProviderPack{Name: " "}); err == nil {
		t.Fatalf("expected empty pack name to be rejected")
	}
	if err := hooks.RegisterProviderPack(ProviderPack{Name: "empty"}); err == nil {
		t.Fatalf("expected pack without providers to be rejected")
	}

	pack := ProviderPack{
		Name:      "wallet-sdk",
		Providers: []core.WalletProvider{&stubWalletProvider{name: "custom"}},
	}
	if err := hooks.RegisterProviderPack(pack); err != nil {
		t.Fatalf("register pack: %v", err)
	}
	if err := hooks.RegisterProviderPack(pack); err == nil {
		t.Fatalf("expected duplicate pack to be rejected")
	}

	registry := core.NewWalletProviderRegistry()
	if err := hooks.ApplyProviderPacks(registry); err != nil {
		t.Fatalf("apply packs: %v", err)
	}
	if _, ok := registry.Get("custom"); !ok {
		t.Fatalf("expected pack provider to land in the registry")
	}
}

func TestExtensionHooksObserverPacks(t *testing.T) {
	hooks := NewExtensionHooks()
	notified := 0

	err := hooks.RegisterObserverPack(ObserverPack{
		Name: "analytics",
		Observers: []core.SessionObserver{
			core.SessionObserverFunc(func(core.Session) { notified++ }),
		},
	})
	if err != nil {
		t.Fatalf("register observer pack: %v", err)
	}

	service, err := Setup(DefaultConfig(), WithSessionBackend(noopBackend{}))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := hooks.ApplyObserverPacks(service); err != nil {
		t.Fatalf("apply observer packs: %v", err)
	}

	if err := service.Disconnect(context.Background()); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if notified == 0 {
		t.Fatalf("expected pack observer to receive session changes")
	}
}

func TestExtensionHooksCommandQueryBundles(t *testing.T) {
	hooks := NewExtensionHooks()

	if err := hooks.RegisterCommandQueryBundle("", nil); err == nil {
		t.Fatalf("expected empty bundle name to be rejected")
	}
	if err := hooks.RegisterCommandQueryBundle("bundle", nil); err == nil {
		t.Fatalf("expected nil factory to be rejected")
	}

	err := hooks.RegisterCommandQueryBundle("facade", func(service CommandQueryService) (any, error) {
		return NewFacade(service)
	})
	if err != nil {
		t.Fatalf("register bundle: %v", err)
	}
	if got := hooks.BundleNames(); len(got) != 1 || got[0] != "facade" {
		t.Fatalf("expected bundle names [facade], got %v", got)
	}

	service := &facadeStubService{}
	bundles, err := hooks.BuildCommandQueryBundles(service)
	if err != nil {
		t.Fatalf("build bundles: %v", err)
	}
	if _, ok := bundles["facade"].(*Facade); !ok {
		t.Fatalf("expected built facade bundle, got %T", bundles["facade"])
	}
}
