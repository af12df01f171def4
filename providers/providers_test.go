package providers_test

import (
	"context"
	"testing"

	"github.com/conduit-ucpi/walletauth/core"
	"github.com/conduit-ucpi/walletauth/providers"
	"github.com/conduit-ucpi/walletauth/providers/devkit"
)

func TestSocialProvider_LoginDismissalIsDeclined(t *testing.T) {
	broker := devkit.NewSocialBrokerFixture(providers.SocialSession{Address: "0xsocial"})
	broker.DismissNext()
	provider, err := providers.NewSocialProvider(providers.SocialProviderConfig{
		ClientID: "client-1",
		Broker:   broker,
	})
	if err != nil {
		t.Fatalf("new social provider: %v", err)
	}

	result, err := provider.Connect(context.Background(), core.ConnectHint{})
	if err != nil {
		t.Fatalf("dismissal must not be an error: %v", err)
	}
	if !result.Declined {
		t.Fatalf("expected declined result, got %+v", result)
	}
	if provider.Connected() {
		t.Fatalf("declined login must not connect")
	}
}

func TestSocialProvider_InitializeRestoresSession(t *testing.T) {
	broker := devkit.NewSocialBrokerFixture(providers.SocialSession{
		Address:       "0xsocial",
		IdentityToken: "social-token",
	})
	broker.SeedSession()
	provider, err := providers.NewSocialProvider(providers.SocialProviderConfig{
		ClientID: "client-1",
		Broker:   broker,
	})
	if err != nil {
		t.Fatalf("new social provider: %v", err)
	}

	if err := provider.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !provider.Connected() || provider.Address() != "0xsocial" {
		t.Fatalf("expected restored session, connected=%v address=%q", provider.Connected(), provider.Address())
	}
	token, err := provider.IdentityToken(context.Background())
	if err != nil || token != "social-token" {
		t.Fatalf("expected restored identity token, got %q/%v", token, err)
	}
}

func TestSocialProvider_DisconnectLogsOutBroker(t *testing.T) {
	broker := devkit.NewSocialBrokerFixture(providers.SocialSession{Address: "0xsocial", IdentityToken: "tok"})
	provider, err := providers.NewSocialProvider(providers.SocialProviderConfig{ClientID: "client-1", Broker: broker})
	if err != nil {
		t.Fatalf("new social provider: %v", err)
	}
	if _, err := provider.Connect(context.Background(), core.ConnectHint{}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := provider.Disconnect(context.Background()); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if broker.LogoutCalls() != 1 {
		t.Fatalf("expected broker logout, got %d calls", broker.LogoutCalls())
	}
	if provider.Connected() {
		t.Fatalf("expected disconnected provider")
	}
}

func TestInjectedProvider_ConnectAndSign(t *testing.T) {
	runtime, err := devkit.NewWalletRuntimeFixture()
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	provider, err := providers.NewInjectedProvider(providers.InjectedProviderConfig{Runtime: runtime})
	if err != nil {
		t.Fatalf("new injected provider: %v", err)
	}

	result, err := provider.Connect(context.Background(), core.ConnectHint{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !result.Connected || result.Address != runtime.AddressValue() {
		t.Fatalf("unexpected result %+v", result)
	}

	signature, err := provider.SignMessage(context.Background(), "prove it")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !runtime.VerifySignature("prove it", signature) {
		t.Fatalf("signature does not verify")
	}
	if _, err := provider.IdentityToken(context.Background()); err == nil {
		t.Fatalf("injected wallets must not mint identity tokens")
	}
}

func TestInjectedProvider_InitializeFailsWithoutRuntime(t *testing.T) {
	runtime, err := devkit.NewWalletRuntimeFixture()
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	runtime.SetDetected(false)
	provider, err := providers.NewInjectedProvider(providers.InjectedProviderConfig{Runtime: runtime})
	if err != nil {
		t.Fatalf("new injected provider: %v", err)
	}

	if err := provider.Initialize(context.Background()); err == nil {
		t.Fatalf("expected initialize failure without an installed wallet")
	}
}

func TestInjectedProvider_RejectionIsDeclined(t *testing.T) {
	runtime, err := devkit.NewWalletRuntimeFixture()
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	runtime.RejectNext()
	provider, err := providers.NewInjectedProvider(providers.InjectedProviderConfig{Runtime: runtime})
	if err != nil {
		t.Fatalf("new injected provider: %v", err)
	}

	result, err := provider.Connect(context.Background(), core.ConnectHint{})
	if err != nil {
		t.Fatalf("rejection must not be an error: %v", err)
	}
	if !result.Declined {
		t.Fatalf("expected declined result, got %+v", result)
	}
}

func TestInjectedProvider_DisconnectRevokes(t *testing.T) {
	runtime, err := devkit.NewWalletRuntimeFixture()
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	provider, err := providers.NewInjectedProvider(providers.InjectedProviderConfig{Runtime: runtime})
	if err != nil {
		t.Fatalf("new injected provider: %v", err)
	}
	if _, err := provider.Connect(context.Background(), core.ConnectHint{}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := provider.Disconnect(context.Background()); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if runtime.RevokedCount() != 1 {
		t.Fatalf("expected one revoke, got %d", runtime.RevokedCount())
	}
}

func TestRedirectProvider_ConnectStartsRedirect(t *testing.T) {
	bridge := devkit.NewRedirectBridgeFixture("0xredirect")
	provider, err := providers.NewRedirectProvider(providers.RedirectProviderConfig{
		ReturnURL: "https://app.example.com/",
		Bridge:    bridge,
	})
	if err != nil {
		t.Fatalf("new redirect provider: %v", err)
	}

	result, err := provider.Connect(context.Background(), core.ConnectHint{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if result.Connected || result.Declined {
		t.Fatalf("expected a pending result, got %+v", result)
	}
	if got := bridge.BeganRedirects(); len(got) != 1 {
		t.Fatalf("expected one redirect started, got %v", got)
	}
}

func TestRedirectProvider_InitializeAdoptsRestoredSession(t *testing.T) {
	bridge := devkit.NewRedirectBridgeFixture("0xredirect")
	bridge.CompleteExternally()
	provider, err := providers.NewRedirectProvider(providers.RedirectProviderConfig{Bridge: bridge})
	if err != nil {
		t.Fatalf("new redirect provider: %v", err)
	}

	if err := provider.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !provider.Connected() || provider.Address() != "0xredirect" {
		t.Fatalf("expected restored session, connected=%v address=%q", provider.Connected(), provider.Address())
	}
	if got := bridge.BeganRedirects(); len(got) != 0 {
		t.Fatalf("restored session must not start a new redirect: %v", got)
	}
}

func TestHostProvider_SilentConnection(t *testing.T) {
	bridge := devkit.NewHostBridgeFixture("0xhost", "host-token")
	provider, err := providers.NewHostProvider(providers.HostProviderConfig{Bridge: bridge})
	if err != nil {
		t.Fatalf("new host provider: %v", err)
	}

	result, err := provider.Connect(context.Background(), core.ConnectHint{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !result.Connected || result.Address != "0xhost" || result.IdentityToken != "host-token" {
		t.Fatalf("unexpected result %+v", result)
	}
	caps := provider.Capabilities()
	if !caps.AuthenticationOnly || caps.CanSign {
		t.Fatalf("default host provider is authentication-only, got %+v", caps)
	}
}

func TestHostProvider_NoSessionIsDeclined(t *testing.T) {
	bridge := devkit.NewHostBridgeFixture("0xhost", "host-token")
	bridge.DropSession()
	provider, err := providers.NewHostProvider(providers.HostProviderConfig{Bridge: bridge})
	if err != nil {
		t.Fatalf("new host provider: %v", err)
	}

	result, err := provider.Connect(context.Background(), core.ConnectHint{})
	if err != nil {
		t.Fatalf("missing session must not be an error: %v", err)
	}
	if !result.Declined {
		t.Fatalf("expected declined result, got %+v", result)
	}
}

func TestHostProvider_SigningSupportedTogglesCapabilities(t *testing.T) {
	bridge := devkit.NewHostBridgeFixture("0xhost", "host-token")
	provider, err := providers.NewHostProvider(providers.HostProviderConfig{
		Bridge:           bridge,
		SigningSupported: true,
	})
	if err != nil {
		t.Fatalf("new host provider: %v", err)
	}
	if _, err := provider.Connect(context.Background(), core.ConnectHint{}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	caps := provider.Capabilities()
	if !caps.CanSign || caps.AuthenticationOnly {
		t.Fatalf("signing host must report CanSign, got %+v", caps)
	}
	if _, err := provider.SignMessage(context.Background(), "probe"); err != nil {
		t.Fatalf("sign: %v", err)
	}
}
