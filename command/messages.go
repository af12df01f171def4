// Package command exposes the orchestrator's mutating operations as
// go-command messages, so hosts can route them through dispatchers,
// middleware, and workers without binding to the service type.
package command

import (
	"strings"

	"github.com/conduit-ucpi/walletauth/core"
)

const (
	TypeConnect            = "walletauth.command.connect"
	TypeDisconnect         = "walletauth.command.disconnect"
	TypeSwitchProvider     = "walletauth.command.switch_provider"
	TypeCompleteRedirect   = "walletauth.command.redirect.complete"
	TypeRevalidateSession  = "walletauth.command.session.revalidate"
	TypeAuthenticatedFetch = "walletauth.command.fetch"
)

type ConnectMessage struct {
	Hint core.ConnectHint
}

func (ConnectMessage) Type() string { return TypeConnect }

// Validate accepts every hint: the address and metadata are provider
// suggestions, and provider selection itself is context-driven.
func (ConnectMessage) Validate() error { return nil }

type DisconnectMessage struct{}

func (DisconnectMessage) Type() string { return TypeDisconnect }

func (DisconnectMessage) Validate() error { return nil }

type SwitchProviderMessage struct{}

func (SwitchProviderMessage) Type() string { return TypeSwitchProvider }

func (SwitchProviderMessage) Validate() error { return nil }

type CompleteRedirectMessage struct{}

func (CompleteRedirectMessage) Type() string { return TypeCompleteRedirect }

func (CompleteRedirectMessage) Validate() error { return nil }

type RevalidateSessionMessage struct{}

func (RevalidateSessionMessage) Type() string { return TypeRevalidateSession }

func (RevalidateSessionMessage) Validate() error { return nil }

type AuthenticatedFetchMessage struct {
	Request core.FetchRequest
}

func (AuthenticatedFetchMessage) Type() string { return TypeAuthenticatedFetch }

func (m AuthenticatedFetchMessage) Validate() error {
	if strings.TrimSpace(m.Request.Path) == "" {
		return commandValidationError("path", "request path is required")
	}
	return nil
}
