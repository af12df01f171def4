package walletauth

import (
	"testing"

	"github.com/conduit-ucpi/walletauth/core"
	"github.com/conduit-ucpi/walletauth/providers"
	"github.com/conduit-ucpi/walletauth/providers/devkit"
)

func TestProviderFactoriesBuildEveryVariant(t *testing.T) {
	runtime, err := devkit.NewWalletRuntimeFixture()
	if err != nil {
		t.Fatalf("wallet runtime fixture: %v", err)
	}

	factories := []struct {
		name  string
		build func() (core.WalletProvider, error)
	}{
		{core.ProviderSocial, func() (core.WalletProvider, error) {
			return SocialProvider(providers.SocialProviderConfig{
				ClientID: "client-1",
				Broker:   devkit.NewSocialBrokerFixture(providers.SocialSession{}),
			})
		}},
		{core.ProviderInjected, func() (core.WalletProvider, error) {
			return InjectedProvider(providers.InjectedProviderConfig{Runtime: runtime})
		}},
		{core.ProviderRedirect, func() (core.WalletProvider, error) {
			return RedirectProvider(providers.RedirectProviderConfig{
				ReturnURL: "https://app.example.com/return",
				Bridge:    devkit.NewRedirectBridgeFixture("0xredirect"),
			})
		}},
		{core.ProviderHost, func() (core.WalletProvider, error) {
			return HostProvider(providers.HostProviderConfig{
				Bridge: devkit.NewHostBridgeFixture("0xhost", "host-token"),
			})
		}},
	}

	registry := core.NewWalletProviderRegistry()
	for _, factory := range factories {
		provider, err := factory.build()
		if err != nil {
			t.Fatalf("%s factory: %v", factory.name, err)
		}
		if provider.Name() != factory.name {
			t.Fatalf("expected provider name %q, got %q", factory.name, provider.Name())
		}
		if err := registry.Register(provider); err != nil {
			t.Fatalf("register %s: %v", factory.name, err)
		}
	}

	if got := len(registry.List()); got != len(factories) {
		t.Fatalf("expected %d registered providers, got %d", len(factories), got)
	}
}

func TestProviderFactoriesRejectMissingBridges(t *testing.T) {
	if _, err := SocialProvider(providers.SocialProviderConfig{ClientID: "client-1"}); err == nil {
		t.Fatalf("expected social factory to require a broker")
	}
	if _, err := InjectedProvider(providers.InjectedProviderConfig{}); err == nil {
		t.Fatalf("expected injected factory to require a runtime")
	}
	if _, err := RedirectProvider(providers.RedirectProviderConfig{}); err == nil {
		t.Fatalf("expected redirect factory to require a bridge")
	}
	if _, err := HostProvider(providers.HostProviderConfig{}); err == nil {
		t.Fatalf("expected host factory to require a bridge")
	}
}
