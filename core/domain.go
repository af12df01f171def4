package core

import (
	"strings"
	"time"
)

const (
	ProviderSocial   = "social_embedded"
	ProviderInjected = "injected_wallet"
	ProviderRedirect = "redirect_wallet"
	ProviderHost     = "host_wallet"
)

// TokenStorageKey is the key both token storage scopes persist under.
const TokenStorageKey = "auth_token"

// User is the backend-verified identity merged with provider-only profile
// fields the backend does not know about.
type User struct {
	ID             string
	DisplayAddress string
	Email          string
	DisplayName    string
	SourceProvider string
}

// Session is the single source of truth exposed to the rest of the
// application. IsConnected and IsAuthenticated are independent: a provider
// may be reachable before the backend has verified a credential. The
// invariants IsAuthenticated => IsConnected and User != nil =>
// IsAuthenticated hold on every published snapshot.
type Session struct {
	User            *User
	Credential      string
	IsConnected     bool
	IsAuthenticated bool
	IsInitializing  bool
	ActiveProvider  string
	Err             error
}

func (s Session) clone() Session {
	out := s
	if s.User != nil {
		user := *s.User
		out.User = &user
	}
	return out
}

// CapabilitySet describes what a provider variant can do. Consumers branch
// on capability, never on provider identity.
type CapabilitySet struct {
	CanSign            bool
	CanTransact        bool
	CanSwitchAccounts  bool
	AuthenticationOnly bool
}

// ConnectHint carries optional provider-specific connect parameters.
type ConnectHint struct {
	Address  string
	Metadata map[string]any
}

// ConnectResult reports the outcome of a provider connect flow. User-facing
// failures (cancellation, unreachable runtime) arrive as Declined with a
// human-readable Reason, never as an error.
type ConnectResult struct {
	Connected     bool
	Declined      bool
	Reason        string
	Address       string
	IdentityToken string
	Profile       map[string]string
}

// BackendUser is the user record returned by the backend session endpoints.
type BackendUser struct {
	ID             string
	DisplayAddress string
	Email          string
	DisplayName    string
}

// ChallengeCredential is the synthesized credential payload for providers
// without a native identity token. It never carries key material.
type ChallengeCredential struct {
	Address   string    `json:"address"`
	Message   string    `json:"message"`
	Signature string    `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
	Nonce     string    `json:"nonce"`
}

// IssuedCredential is the opaque bearer payload handed to the backend,
// plus any provider-only profile fields captured while issuing it.
type IssuedCredential struct {
	Credential string
	Address    string
	Profile    map[string]string
}

// ExecutionContext captures the runtime signals that determine which
// provider variant serves the current session. Exactly one context
// determines the choice; there is no user-level override at this layer.
type ExecutionContext struct {
	HostBridgeAvailable      bool
	InjectedRuntimeAvailable bool
	RedirectMarkersPresent   bool
}

type AuthActivityStatus string

const (
	AuthActivitySuccess  AuthActivityStatus = "success"
	AuthActivityFailure  AuthActivityStatus = "failure"
	AuthActivityDeclined AuthActivityStatus = "declined"
)

const (
	AuthActionConnect    = "connect"
	AuthActionLogin      = "login"
	AuthActionLogout     = "logout"
	AuthActionSwitch     = "switch_provider"
	AuthActionRedirect   = "redirect_complete"
	AuthActionRevalidate = "revalidate"
)

// AuthActivityEntry records one authentication lifecycle event. The
// credential itself is never stored here.
type AuthActivityEntry struct {
	ID        string
	Provider  string
	Address   string
	Action    string
	Status    AuthActivityStatus
	Error     string
	Metadata  map[string]any
	CreatedAt time.Time
}

type AuthActivityFilter struct {
	Provider string
	Action   string
	Status   AuthActivityStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}

type AuthActivityPage struct {
	Items   []AuthActivityEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

func normalizeProviderName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
