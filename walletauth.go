// Package walletauth is the embedding surface for the wallet authentication
// orchestrator: it re-exports the core service types and options, registers
// the default credential strategies, and exposes command/query facades.
package walletauth

import (
	"github.com/conduit-ucpi/walletauth/auth"
	"github.com/conduit-ucpi/walletauth/core"
)

type Config = core.Config

type BackendConfig = core.BackendConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Session = core.Session
type User = core.User
type ConnectHint = core.ConnectHint
type FetchRequest = core.FetchRequest
type RedirectOutcome = core.RedirectOutcome
type CapabilitySet = core.CapabilitySet
type ExecutionContext = core.ExecutionContext

type WalletProvider = core.WalletProvider
type Registry = core.Registry
type TokenStore = core.TokenStore
type SessionBackend = core.SessionBackend
type TransportAdapter = core.TransportAdapter
type AuthActivitySink = core.AuthActivitySink
type SecretProvider = core.SecretProvider
type SessionObserver = core.SessionObserver
type SessionObserverFunc = core.SessionObserverFunc
type CredentialStrategy = core.CredentialStrategy

var (
	WithLogger                 = core.WithLogger
	WithLoggerProvider         = core.WithLoggerProvider
	WithMetricsRecorder        = core.WithMetricsRecorder
	WithErrorFactory           = core.WithErrorFactory
	WithErrorMapper            = core.WithErrorMapper
	WithConfigProvider         = core.WithConfigProvider
	WithOptionsResolver        = core.WithOptionsResolver
	WithRegistry               = core.WithRegistry
	WithProviderResolver       = core.WithProviderResolver
	WithExecutionContextSource = core.WithExecutionContextSource
	WithTokenStore             = core.WithTokenStore
	WithDurableTokenStore      = core.WithDurableTokenStore
	WithResourceCache          = core.WithResourceCache
	WithSessionBackend         = core.WithSessionBackend
	WithTransportAdapter       = core.WithTransportAdapter
	WithAuthActivitySink       = core.WithAuthActivitySink
	WithRedirectGuard          = core.WithRedirectGuard
	WithRedirectSurface        = core.WithRedirectSurface
	WithCredentialStrategy     = core.WithCredentialStrategy
	WithRedirectRetrySchedule  = core.WithRedirectRetrySchedule
	WithSessionObserver        = core.WithSessionObserver
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

// Setup builds a service with the default credential strategies installed:
// identity tokens for providers that mint them, challenge signatures for
// everything else. Caller options run afterwards, so a caller-supplied
// strategy of the same kind replaces the default.
func Setup(cfg Config, opts ...Option) (*Service, error) {
	defaults := []Option{
		WithCredentialStrategy(auth.NewIdentityTokenStrategy(auth.IdentityTokenStrategyConfig{
			ExpectedIssuer: cfg.Providers.Social.Issuer,
		})),
		WithCredentialStrategy(auth.NewChallengeSignatureStrategy(auth.ChallengeSignatureStrategyConfig{
			ChainID: cfg.ChainID,
		})),
	}
	return core.Setup(cfg, append(defaults, opts...)...)
}
