package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-ucpi/walletauth/core"
)

// HostBridge abstracts the wallet owned by a surrounding host application
// when the app runs embedded in another product. The host holds the keys
// and the session; the embedded app only asks.
type HostBridge interface {
	Available(ctx context.Context) bool
	AccountAddress(ctx context.Context) (string, error)
	SessionToken(ctx context.Context) (string, error)
	RequestSignature(ctx context.Context, message string) (string, error)
}

type HostProviderConfig struct {
	Bridge HostBridge
	// SigningSupported is false for hosts that only vouch for identity.
	SigningSupported bool
}

// HostProvider adopts the host application's wallet session. Connection is
// silent: the host either has a session or it does not, and no user
// interaction is ever triggered from here.
type HostProvider struct {
	config HostProviderConfig

	mu        sync.Mutex
	address   string
	connected bool
}

func NewHostProvider(cfg HostProviderConfig) (*HostProvider, error) {
	if cfg.Bridge == nil {
		return nil, fmt.Errorf("providers: host bridge is required")
	}
	return &HostProvider{config: cfg}, nil
}

func (*HostProvider) Name() string { return core.ProviderHost }

func (p *HostProvider) Initialize(ctx context.Context) error {
	if p == nil {
		return fmt.Errorf("providers: host provider is nil")
	}
	if !p.config.Bridge.Available(ctx) {
		return fmt.Errorf("providers: host bridge is not available")
	}
	return nil
}

func (p *HostProvider) Connect(ctx context.Context, _ core.ConnectHint) (core.ConnectResult, error) {
	if p == nil {
		return core.ConnectResult{}, fmt.Errorf("providers: host provider is nil")
	}
	address, err := p.config.Bridge.AccountAddress(ctx)
	if err != nil {
		return core.ConnectResult{}, fmt.Errorf("providers: host account unavailable: %w", err)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return core.ConnectResult{Declined: true, Reason: "host has no active wallet session"}, nil
	}

	token, err := p.config.Bridge.SessionToken(ctx)
	if err != nil {
		return core.ConnectResult{}, fmt.Errorf("providers: host session token unavailable: %w", err)
	}

	p.mu.Lock()
	p.address = address
	p.connected = true
	p.mu.Unlock()

	return core.ConnectResult{
		Connected:     true,
		Address:       address,
		IdentityToken: strings.TrimSpace(token),
	}, nil
}

// Disconnect drops the local handle only; the host owns its session and is
// never logged out from here.
func (p *HostProvider) Disconnect(context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	p.address = ""
	p.connected = false
	p.mu.Unlock()
	return nil
}

func (p *HostProvider) SignMessage(ctx context.Context, message string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("providers: host provider is nil")
	}
	if !p.config.SigningSupported {
		return "", fmt.Errorf("providers: host wallet does not support message signing")
	}
	p.mu.Lock()
	connected := p.connected
	p.mu.Unlock()
	if !connected {
		return "", fmt.Errorf("providers: host wallet is not connected")
	}
	signature, err := p.config.Bridge.RequestSignature(ctx, message)
	if err != nil {
		return "", fmt.Errorf("providers: host signing failed: %w", err)
	}
	return signature, nil
}

func (p *HostProvider) Connected() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *HostProvider) Address() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.address
}

func (p *HostProvider) IdentityToken(ctx context.Context) (string, error) {
	if p == nil {
		return "", fmt.Errorf("providers: host provider is nil")
	}
	token, err := p.config.Bridge.SessionToken(ctx)
	if err != nil {
		return "", fmt.Errorf("providers: host session token unavailable: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("providers: host returned an empty session token")
	}
	return token, nil
}

func (p *HostProvider) Capabilities() core.CapabilitySet {
	if p == nil {
		return core.CapabilitySet{}
	}
	return core.CapabilitySet{
		CanSign:            p.config.SigningSupported,
		CanTransact:        p.config.SigningSupported,
		AuthenticationOnly: !p.config.SigningSupported,
	}
}
