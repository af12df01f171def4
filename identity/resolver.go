// Package identity resolves which wallet provider variant serves the
// current execution context. Exactly one context signal wins; there is no
// user-level provider picker at this layer.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-ucpi/walletauth/core"
)

var ErrNoProviderAvailable = errors.New("identity: no provider available for execution context")

// ContextResolver maps runtime signals to a provider name using a fixed
// precedence: a host application bridge outranks an in-flight redirect,
// which outranks an installed wallet runtime, and the social embedded
// wallet is the fallback that always works.
type ContextResolver struct {
	// SocialAvailable is false when no social login is configured; the
	// resolver then fails instead of falling back.
	SocialAvailable bool

	// PreferInjected selects the installed wallet over the social fallback
	// when both are usable. Defaults to true through NewContextResolver.
	PreferInjected bool
}

func NewContextResolver() *ContextResolver {
	return &ContextResolver{
		SocialAvailable: true,
		PreferInjected:  true,
	}
}

func (r *ContextResolver) ResolveProvider(_ context.Context, execCtx core.ExecutionContext) (string, error) {
	if r == nil {
		return "", fmt.Errorf("identity: context resolver is not configured")
	}

	switch {
	case execCtx.HostBridgeAvailable:
		return core.ProviderHost, nil
	case execCtx.RedirectMarkersPresent:
		return core.ProviderRedirect, nil
	case execCtx.InjectedRuntimeAvailable && r.PreferInjected:
		return core.ProviderInjected, nil
	case r.SocialAvailable:
		return core.ProviderSocial, nil
	case execCtx.InjectedRuntimeAvailable:
		return core.ProviderInjected, nil
	}
	return "", ErrNoProviderAvailable
}

// URLExecutionContextSource derives the execution context from a snapshot
// function supplied by the embedding application. Each signal probe is
// independent so a failing host bridge never masks an injected runtime.
func URLExecutionContextSource(
	currentURL func(ctx context.Context) string,
	hostAvailable func(ctx context.Context) bool,
	injectedAvailable func(ctx context.Context) bool,
) core.ExecutionContextSource {
	return func(ctx context.Context) core.ExecutionContext {
		execCtx := core.ExecutionContext{}
		if hostAvailable != nil {
			execCtx.HostBridgeAvailable = hostAvailable(ctx)
		}
		if injectedAvailable != nil {
			execCtx.InjectedRuntimeAvailable = injectedAvailable(ctx)
		}
		if currentURL != nil {
			if rawURL := strings.TrimSpace(currentURL(ctx)); rawURL != "" {
				execCtx.RedirectMarkersPresent = core.HasRedirectMarkers(rawURL)
			}
		}
		return execCtx
	}
}

var _ core.ProviderResolver = (*ContextResolver)(nil)
