package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-ucpi/walletauth/core"
)

// SocialSession is what a social login broker hands back after the hosted
// login completes: a wallet address derived for the user, the identity
// token minted by the identity platform, and any profile claims.
type SocialSession struct {
	Address       string
	IdentityToken string
	Profile       map[string]string
}

// SocialLoginBroker abstracts the embedded-wallet identity platform. The
// embedding application supplies an implementation backed by its social
// login SDK.
type SocialLoginBroker interface {
	StartLogin(ctx context.Context, hint core.ConnectHint) (SocialSession, error)
	CurrentSession(ctx context.Context) (SocialSession, bool, error)
	SignMessage(ctx context.Context, address string, message string) (string, error)
	Logout(ctx context.Context) error
}

// ErrLoginDismissed is what brokers return when the user closes the hosted
// login without completing it; the provider maps it to a declined result.
var ErrLoginDismissed = fmt.Errorf("providers: login dismissed by user")

type SocialProviderConfig struct {
	ClientID string
	Issuer   string
	Broker   SocialLoginBroker
}

// SocialProvider is the social-login embedded wallet: users authenticate
// with a social identity and receive a wallet managed by the identity
// platform. It mints a native identity token, so no challenge signature is
// needed.
type SocialProvider struct {
	config SocialProviderConfig

	mu          sync.Mutex
	initialized bool
	session     SocialSession
	connected   bool
}

func NewSocialProvider(cfg SocialProviderConfig) (*SocialProvider, error) {
	if cfg.Broker == nil {
		return nil, fmt.Errorf("providers: social login broker is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("providers: social client id is required")
	}
	return &SocialProvider{
		config: SocialProviderConfig{
			ClientID: strings.TrimSpace(cfg.ClientID),
			Issuer:   strings.TrimSpace(cfg.Issuer),
			Broker:   cfg.Broker,
		},
	}, nil
}

func (*SocialProvider) Name() string { return core.ProviderSocial }

// Initialize resumes any session the broker still holds; it never opens
// login UI.
func (p *SocialProvider) Initialize(ctx context.Context) error {
	if p == nil {
		return fmt.Errorf("providers: social provider is nil")
	}
	p.mu.Lock()
	if p.initialized {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	session, ok, err := p.config.Broker.CurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("providers: social session restore failed: %w", err)
	}

	p.mu.Lock()
	p.initialized = true
	if ok && strings.TrimSpace(session.Address) != "" {
		p.session = session
		p.connected = true
	}
	p.mu.Unlock()
	return nil
}

func (p *SocialProvider) Connect(ctx context.Context, hint core.ConnectHint) (core.ConnectResult, error) {
	if p == nil {
		return core.ConnectResult{}, fmt.Errorf("providers: social provider is nil")
	}
	p.mu.Lock()
	if p.connected {
		session := p.session
		p.mu.Unlock()
		return core.ConnectResult{
			Connected:     true,
			Address:       session.Address,
			IdentityToken: session.IdentityToken,
			Profile:       cloneProfile(session.Profile),
		}, nil
	}
	p.mu.Unlock()

	session, err := p.config.Broker.StartLogin(ctx, hint)
	if err != nil {
		if isDismissal(err) {
			return core.ConnectResult{Declined: true, Reason: "login dismissed"}, nil
		}
		return core.ConnectResult{}, fmt.Errorf("providers: social login failed: %w", err)
	}
	if strings.TrimSpace(session.Address) == "" {
		return core.ConnectResult{}, fmt.Errorf("providers: social login returned no wallet address")
	}

	p.mu.Lock()
	p.session = session
	p.connected = true
	p.mu.Unlock()

	return core.ConnectResult{
		Connected:     true,
		Address:       session.Address,
		IdentityToken: session.IdentityToken,
		Profile:       cloneProfile(session.Profile),
	}, nil
}

func (p *SocialProvider) Disconnect(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	p.session = SocialSession{}
	p.connected = false
	p.mu.Unlock()
	if err := p.config.Broker.Logout(ctx); err != nil {
		return fmt.Errorf("providers: social logout failed: %w", err)
	}
	return nil
}

func (p *SocialProvider) SignMessage(ctx context.Context, message string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("providers: social provider is nil")
	}
	p.mu.Lock()
	address := p.session.Address
	connected := p.connected
	p.mu.Unlock()
	if !connected {
		return "", fmt.Errorf("providers: social wallet is not connected")
	}
	signature, err := p.config.Broker.SignMessage(ctx, address, message)
	if err != nil {
		return "", fmt.Errorf("providers: social signing failed: %w", err)
	}
	return signature, nil
}

func (p *SocialProvider) Connected() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *SocialProvider) Address() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Address
}

func (p *SocialProvider) IdentityToken(context.Context) (string, error) {
	if p == nil {
		return "", fmt.Errorf("providers: social provider is nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected || strings.TrimSpace(p.session.IdentityToken) == "" {
		return "", fmt.Errorf("providers: no social identity token available")
	}
	return p.session.IdentityToken, nil
}

func (*SocialProvider) Capabilities() core.CapabilitySet {
	return core.CapabilitySet{
		CanSign:           true,
		CanTransact:       true,
		CanSwitchAccounts: false,
	}
}
