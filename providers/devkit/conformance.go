package devkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/conduit-ucpi/walletauth/core"
)

// ValidateWalletProviderConformance exercises the parts of the
// core.WalletProvider contract every variant must honor: stable name,
// idempotent initialization, coherent connection state, and a capability
// set consistent with signing behavior.
func ValidateWalletProviderConformance(ctx context.Context, provider core.WalletProvider) error {
	if provider == nil {
		return fmt.Errorf("devkit: provider is required")
	}
	if strings.TrimSpace(provider.Name()) == "" {
		return fmt.Errorf("devkit: provider name is required")
	}

	if err := provider.Initialize(ctx); err != nil {
		return fmt.Errorf("devkit: initialize failed: %w", err)
	}
	// Initialize is idempotent and must not require user interaction.
	if err := provider.Initialize(ctx); err != nil {
		return fmt.Errorf("devkit: repeated initialize failed: %w", err)
	}

	result, err := provider.Connect(ctx, core.ConnectHint{})
	if err != nil {
		return fmt.Errorf("devkit: connect failed: %w", err)
	}
	if result.Declined {
		return fmt.Errorf("devkit: conformance fixture declined the connection: %s", result.Reason)
	}
	if !result.Connected {
		// Redirect-style providers legitimately defer completion.
		return nil
	}

	if !provider.Connected() {
		return fmt.Errorf("devkit: provider reports disconnected after a successful connect")
	}
	address := strings.TrimSpace(provider.Address())
	if address == "" {
		return fmt.Errorf("devkit: connected provider reports no address")
	}
	if resultAddress := strings.TrimSpace(result.Address); resultAddress != "" && !strings.EqualFold(resultAddress, address) {
		return fmt.Errorf("devkit: connect result address %q disagrees with provider address %q", resultAddress, address)
	}

	caps := provider.Capabilities()
	if caps.CanSign {
		signature, signErr := provider.SignMessage(ctx, "conformance probe")
		if signErr != nil {
			return fmt.Errorf("devkit: CanSign provider refused to sign: %w", signErr)
		}
		if strings.TrimSpace(signature) == "" {
			return fmt.Errorf("devkit: CanSign provider returned an empty signature")
		}
	} else {
		if _, signErr := provider.SignMessage(ctx, "conformance probe"); signErr == nil {
			return fmt.Errorf("devkit: non-signing provider accepted a signing request")
		}
	}
	if caps.AuthenticationOnly {
		if _, tokenErr := provider.IdentityToken(ctx); tokenErr != nil {
			return fmt.Errorf("devkit: authentication-only provider must supply an identity token: %w", tokenErr)
		}
	}

	if err := provider.Disconnect(ctx); err != nil {
		return fmt.Errorf("devkit: disconnect failed: %w", err)
	}
	if provider.Connected() {
		return fmt.Errorf("devkit: provider reports connected after disconnect")
	}
	return nil
}
