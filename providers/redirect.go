package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-ucpi/walletauth/core"
)

// RedirectBridge abstracts a wallet that authenticates through a full-page
// redirect or deep link. BeginRedirect navigates away; RestoredSession
// reports the connection the wallet re-established after the page returned.
type RedirectBridge interface {
	BeginRedirect(ctx context.Context, returnURL string) error
	RestoredSession(ctx context.Context) (address string, ok bool, err error)
	SignMessage(ctx context.Context, address string, message string) (string, error)
	Revoke(ctx context.Context) error
}

type RedirectProviderConfig struct {
	ReturnURL string
	Bridge    RedirectBridge
}

// RedirectProvider drives wallets that complete login out of band. Connect
// either resumes an already restored session or starts the redirect; the
// actual completion happens in the next page load through the redirect
// reconciler.
type RedirectProvider struct {
	config RedirectProviderConfig

	mu        sync.Mutex
	address   string
	connected bool
}

func NewRedirectProvider(cfg RedirectProviderConfig) (*RedirectProvider, error) {
	if cfg.Bridge == nil {
		return nil, fmt.Errorf("providers: redirect bridge is required")
	}
	return &RedirectProvider{
		config: RedirectProviderConfig{
			ReturnURL: strings.TrimSpace(cfg.ReturnURL),
			Bridge:    cfg.Bridge,
		},
	}, nil
}

func (*RedirectProvider) Name() string { return core.ProviderRedirect }

// Initialize adopts any session the bridge restored from a completed
// redirect. The reconciler polls Connected and Address through this state.
func (p *RedirectProvider) Initialize(ctx context.Context) error {
	if p == nil {
		return fmt.Errorf("providers: redirect provider is nil")
	}
	address, ok, err := p.config.Bridge.RestoredSession(ctx)
	if err != nil {
		return fmt.Errorf("providers: redirect session restore failed: %w", err)
	}
	if ok && strings.TrimSpace(address) != "" {
		p.mu.Lock()
		p.address = strings.TrimSpace(address)
		p.connected = true
		p.mu.Unlock()
	}
	return nil
}

func (p *RedirectProvider) Connect(ctx context.Context, _ core.ConnectHint) (core.ConnectResult, error) {
	if p == nil {
		return core.ConnectResult{}, fmt.Errorf("providers: redirect provider is nil")
	}
	p.mu.Lock()
	if p.connected {
		address := p.address
		p.mu.Unlock()
		return core.ConnectResult{Connected: true, Address: address}, nil
	}
	p.mu.Unlock()

	// Refresh bridge state; the redirect may have settled since Initialize.
	if address, ok, err := p.config.Bridge.RestoredSession(ctx); err == nil && ok && strings.TrimSpace(address) != "" {
		p.mu.Lock()
		p.address = strings.TrimSpace(address)
		p.connected = true
		p.mu.Unlock()
		return core.ConnectResult{Connected: true, Address: p.Address()}, nil
	}

	if err := p.config.Bridge.BeginRedirect(ctx, p.config.ReturnURL); err != nil {
		if isDismissal(err) {
			return core.ConnectResult{Declined: true, Reason: "redirect declined"}, nil
		}
		return core.ConnectResult{}, fmt.Errorf("providers: redirect start failed: %w", err)
	}
	// Navigation is underway; this page is about to unload.
	return core.ConnectResult{Connected: false, Reason: "redirect in progress"}, nil
}

func (p *RedirectProvider) Disconnect(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	p.address = ""
	p.connected = false
	p.mu.Unlock()
	if err := p.config.Bridge.Revoke(ctx); err != nil {
		return fmt.Errorf("providers: redirect revoke failed: %w", err)
	}
	return nil
}

func (p *RedirectProvider) SignMessage(ctx context.Context, message string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("providers: redirect provider is nil")
	}
	p.mu.Lock()
	address := p.address
	connected := p.connected
	p.mu.Unlock()
	if !connected {
		return "", fmt.Errorf("providers: redirect wallet is not connected")
	}
	signature, err := p.config.Bridge.SignMessage(ctx, address, message)
	if err != nil {
		return "", fmt.Errorf("providers: redirect signing failed: %w", err)
	}
	return signature, nil
}

func (p *RedirectProvider) Connected() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *RedirectProvider) Address() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.address
}

func (*RedirectProvider) IdentityToken(context.Context) (string, error) {
	return "", fmt.Errorf("providers: redirect wallets mint no identity token")
}

func (*RedirectProvider) Capabilities() core.CapabilitySet {
	return core.CapabilitySet{
		CanSign:     true,
		CanTransact: true,
	}
}
