package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-ucpi/walletauth/core"
)

// WalletRuntime abstracts an injected browser-extension wallet. The
// embedding application supplies the bridge to the actual runtime object.
type WalletRuntime interface {
	Detected(ctx context.Context) bool
	RequestAccounts(ctx context.Context) ([]string, error)
	PersonalSign(ctx context.Context, address string, message string) (string, error)
	Revoke(ctx context.Context) error
}

type InjectedProviderConfig struct {
	Runtime WalletRuntime
}

// InjectedProvider drives an externally installed wallet extension. The
// wallet mints no identity token, so authentication always goes through
// challenge-response signing.
type InjectedProvider struct {
	config InjectedProviderConfig

	mu        sync.Mutex
	address   string
	connected bool
}

func NewInjectedProvider(cfg InjectedProviderConfig) (*InjectedProvider, error) {
	if cfg.Runtime == nil {
		return nil, fmt.Errorf("providers: wallet runtime is required")
	}
	return &InjectedProvider{config: cfg}, nil
}

func (*InjectedProvider) Name() string { return core.ProviderInjected }

func (p *InjectedProvider) Initialize(ctx context.Context) error {
	if p == nil {
		return fmt.Errorf("providers: injected provider is nil")
	}
	if !p.config.Runtime.Detected(ctx) {
		return fmt.Errorf("providers: no injected wallet runtime detected")
	}
	return nil
}

func (p *InjectedProvider) Connect(ctx context.Context, _ core.ConnectHint) (core.ConnectResult, error) {
	if p == nil {
		return core.ConnectResult{}, fmt.Errorf("providers: injected provider is nil")
	}
	accounts, err := p.config.Runtime.RequestAccounts(ctx)
	if err != nil {
		if isDismissal(err) {
			return core.ConnectResult{Declined: true, Reason: "account request rejected"}, nil
		}
		return core.ConnectResult{}, fmt.Errorf("providers: account request failed: %w", err)
	}
	address := firstAddress(accounts)
	if address == "" {
		return core.ConnectResult{Declined: true, Reason: "no account granted"}, nil
	}

	p.mu.Lock()
	p.address = address
	p.connected = true
	p.mu.Unlock()

	return core.ConnectResult{Connected: true, Address: address}, nil
}

func (p *InjectedProvider) Disconnect(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	p.address = ""
	p.connected = false
	p.mu.Unlock()
	if err := p.config.Runtime.Revoke(ctx); err != nil {
		return fmt.Errorf("providers: revoke failed: %w", err)
	}
	return nil
}

func (p *InjectedProvider) SignMessage(ctx context.Context, message string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("providers: injected provider is nil")
	}
	p.mu.Lock()
	address := p.address
	connected := p.connected
	p.mu.Unlock()
	if !connected {
		return "", fmt.Errorf("providers: injected wallet is not connected")
	}
	signature, err := p.config.Runtime.PersonalSign(ctx, address, message)
	if err != nil {
		if isDismissal(err) {
			return "", fmt.Errorf("providers: signature request rejected: %w", err)
		}
		return "", fmt.Errorf("providers: signing failed: %w", err)
	}
	if strings.TrimSpace(signature) == "" {
		return "", fmt.Errorf("providers: runtime returned an empty signature")
	}
	return signature, nil
}

func (p *InjectedProvider) Connected() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *InjectedProvider) Address() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.address
}

func (*InjectedProvider) IdentityToken(context.Context) (string, error) {
	return "", fmt.Errorf("providers: injected wallets mint no identity token")
}

func (*InjectedProvider) Capabilities() core.CapabilitySet {
	return core.CapabilitySet{
		CanSign:           true,
		CanTransact:       true,
		CanSwitchAccounts: true,
	}
}
