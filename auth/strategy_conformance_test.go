package auth

import (
	"context"
	"testing"

	"github.com/conduit-ucpi/walletauth/core"
)

// Every strategy must report a stable kind, never issue an empty
// credential, and echo the address it authenticated.
func TestStrategyConformance(t *testing.T) {
	provider := &fakeProvider{
		name:         core.ProviderInjected,
		address:      "0xabc123",
		identity:     "opaque-token",
		capabilities: core.CapabilitySet{CanSign: true},
	}

	strategies := []core.CredentialStrategy{
		NewIdentityTokenStrategy(IdentityTokenStrategyConfig{}),
		NewChallengeSignatureStrategy(ChallengeSignatureStrategyConfig{}),
	}

	kinds := map[string]bool{}
	for _, strategy := range strategies {
		kind := strategy.Kind()
		if kind == "" {
			t.Fatalf("%T: empty kind", strategy)
		}
		if kinds[kind] {
			t.Fatalf("duplicate strategy kind %q", kind)
		}
		kinds[kind] = true

		issued, err := strategy.Issue(context.Background(), provider, "0xabc123")
		if err != nil {
			t.Fatalf("%T: issue: %v", strategy, err)
		}
		if issued.Credential == "" {
			t.Fatalf("%T: empty credential", strategy)
		}
		if issued.Address != "0xabc123" {
			t.Fatalf("%T: address %q", strategy, issued.Address)
		}
		if issued.Profile == nil {
			t.Fatalf("%T: nil profile map", strategy)
		}
	}

	if !kinds[core.CredentialKindIdentityToken] || !kinds[core.CredentialKindChallengeSignature] {
		t.Fatalf("expected both credential kinds covered, got %v", kinds)
	}
}
