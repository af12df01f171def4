// Package devkit ships in-memory bridge fixtures and conformance helpers
// for building and testing wallet providers without a browser runtime.
package devkit

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-ucpi/walletauth/core"
	"github.com/conduit-ucpi/walletauth/providers"
)

// WalletRuntimeFixture is an in-memory injected-wallet runtime holding a
// real ed25519 key, so signatures produced in tests verify.
type WalletRuntimeFixture struct {
	mu sync.Mutex

	address    string
	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey

	detected     bool
	rejectNext   bool
	revokedCount int
}

func NewWalletRuntimeFixture() (*WalletRuntimeFixture, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("devkit: generate wallet key: %w", err)
	}
	digest := sha256.Sum256(publicKey)
	return &WalletRuntimeFixture{
		address:    "0x" + hex.EncodeToString(digest[:20]),
		publicKey:  publicKey,
		privateKey: privateKey,
		detected:   true,
	}, nil
}

func (r *WalletRuntimeFixture) AddressValue() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.address
}

func (r *WalletRuntimeFixture) PublicKey() ed25519.PublicKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publicKey
}

// SetDetected controls whether the runtime reports an installed wallet.
func (r *WalletRuntimeFixture) SetDetected(detected bool) {
	r.mu.Lock()
	r.detected = detected
	r.mu.Unlock()
}

// RejectNext makes the next account or signature request behave like a
// user dismissal.
func (r *WalletRuntimeFixture) RejectNext() {
	r.mu.Lock()
	r.rejectNext = true
	r.mu.Unlock()
}

func (r *WalletRuntimeFixture) Detected(context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detected
}

func (r *WalletRuntimeFixture) RequestAccounts(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectNext {
		r.rejectNext = false
		return nil, fmt.Errorf("devkit: request rejected by user")
	}
	return []string{r.address}, nil
}

func (r *WalletRuntimeFixture) PersonalSign(_ context.Context, address string, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectNext {
		r.rejectNext = false
		return "", fmt.Errorf("devkit: signature rejected by user")
	}
	if !strings.EqualFold(strings.TrimSpace(address), r.address) {
		return "", fmt.Errorf("devkit: unknown signing address %q", address)
	}
	signature := ed25519.Sign(r.privateKey, []byte(message))
	return "0x" + hex.EncodeToString(signature), nil
}

func (r *WalletRuntimeFixture) Revoke(context.Context) error {
	r.mu.Lock()
	r.revokedCount++
	r.mu.Unlock()
	return nil
}

func (r *WalletRuntimeFixture) RevokedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revokedCount
}

// VerifySignature checks a PersonalSign result against the fixture key.
func (r *WalletRuntimeFixture) VerifySignature(message string, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "0x")
	raw, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return ed25519.Verify(r.PublicKey(), []byte(message), raw)
}

// SocialBrokerFixture simulates a hosted social login platform.
type SocialBrokerFixture struct {
	mu sync.Mutex

	session     providers.SocialSession
	hasSession  bool
	dismissNext bool
	logoutCalls int
}

func NewSocialBrokerFixture(session providers.SocialSession) *SocialBrokerFixture {
	return &SocialBrokerFixture{session: session}
}

// DismissNext makes the next StartLogin behave like a closed login dialog.
func (b *SocialBrokerFixture) DismissNext() {
	b.mu.Lock()
	b.dismissNext = true
	b.mu.Unlock()
}

// SeedSession marks the broker as already logged in, as after a reload.
func (b *SocialBrokerFixture) SeedSession() {
	b.mu.Lock()
	b.hasSession = true
	b.mu.Unlock()
}

func (b *SocialBrokerFixture) StartLogin(_ context.Context, _ core.ConnectHint) (providers.SocialSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dismissNext {
		b.dismissNext = false
		return providers.SocialSession{}, providers.ErrLoginDismissed
	}
	b.hasSession = true
	return b.session, nil
}

func (b *SocialBrokerFixture) CurrentSession(context.Context) (providers.SocialSession, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasSession {
		return providers.SocialSession{}, false, nil
	}
	return b.session, true, nil
}

func (b *SocialBrokerFixture) SignMessage(_ context.Context, _ string, message string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasSession {
		return "", fmt.Errorf("devkit: no social session")
	}
	digest := sha256.Sum256([]byte(message))
	return "0xsocial" + hex.EncodeToString(digest[:8]), nil
}

func (b *SocialBrokerFixture) Logout(context.Context) error {
	b.mu.Lock()
	b.hasSession = false
	b.logoutCalls++
	b.mu.Unlock()
	return nil
}

func (b *SocialBrokerFixture) LogoutCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logoutCalls
}

// RedirectBridgeFixture simulates an out-of-band wallet login: Begin
// records the navigation, CompleteExternally plays the role of the wallet
// finishing the flow before the page returns.
type RedirectBridgeFixture struct {
	mu sync.Mutex

	address     string
	restored    bool
	began       []string
	dismissNext bool
}

func NewRedirectBridgeFixture(address string) *RedirectBridgeFixture {
	return &RedirectBridgeFixture{address: strings.TrimSpace(address)}
}

// CompleteExternally simulates the wallet finishing login while the page
// was away; the next RestoredSession reports the connection.
func (b *RedirectBridgeFixture) CompleteExternally() {
	b.mu.Lock()
	b.restored = true
	b.mu.Unlock()
}

func (b *RedirectBridgeFixture) DismissNext() {
	b.mu.Lock()
	b.dismissNext = true
	b.mu.Unlock()
}

func (b *RedirectBridgeFixture) BeganRedirects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.began...)
}

func (b *RedirectBridgeFixture) BeginRedirect(_ context.Context, returnURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dismissNext {
		b.dismissNext = false
		return fmt.Errorf("devkit: redirect cancelled by user")
	}
	b.began = append(b.began, returnURL)
	return nil
}

func (b *RedirectBridgeFixture) RestoredSession(context.Context) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.restored {
		return "", false, nil
	}
	return b.address, true, nil
}

func (b *RedirectBridgeFixture) SignMessage(_ context.Context, _ string, message string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.restored {
		return "", fmt.Errorf("devkit: redirect wallet has no session")
	}
	digest := sha256.Sum256([]byte(message))
	return "0xredirect" + hex.EncodeToString(digest[:8]), nil
}

func (b *RedirectBridgeFixture) Revoke(context.Context) error {
	b.mu.Lock()
	b.restored = false
	b.mu.Unlock()
	return nil
}

// HostBridgeFixture simulates a surrounding host application that owns the
// wallet session.
type HostBridgeFixture struct {
	mu sync.Mutex

	available bool
	address   string
	token     string
}

func NewHostBridgeFixture(address string, token string) *HostBridgeFixture {
	return &HostBridgeFixture{
		available: true,
		address:   strings.TrimSpace(address),
		token:     strings.TrimSpace(token),
	}
}

func (b *HostBridgeFixture) SetAvailable(available bool) {
	b.mu.Lock()
	b.available = available
	b.mu.Unlock()
}

// DropSession simulates the host logging its user out.
func (b *HostBridgeFixture) DropSession() {
	b.mu.Lock()
	b.address = ""
	b.token = ""
	b.mu.Unlock()
}

func (b *HostBridgeFixture) Available(context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available
}

func (b *HostBridgeFixture) AccountAddress(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.address, nil
}

func (b *HostBridgeFixture) SessionToken(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token, nil
}

func (b *HostBridgeFixture) RequestSignature(_ context.Context, message string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.address == "" {
		return "", fmt.Errorf("devkit: host has no wallet session")
	}
	digest := sha256.Sum256([]byte(message))
	return "0xhost" + hex.EncodeToString(digest[:8]), nil
}
