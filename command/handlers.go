package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/conduit-ucpi/walletauth/core"
)

// MutatingService is the slice of the orchestrator the commands need.
type MutatingService interface {
	Connect(ctx context.Context, hint core.ConnectHint) (core.Session, error)
	Disconnect(ctx context.Context) error
	SwitchProvider(ctx context.Context) (core.Session, error)
	Revalidate(ctx context.Context) (core.Session, error)
	CompleteRedirect(ctx context.Context) (core.RedirectOutcome, core.Session, error)
	AuthenticatedFetch(ctx context.Context, req core.FetchRequest) (core.TransportResponse, error)
}

// RedirectCompletion pairs the reconciliation outcome with the session it
// settled on, for callers collecting the command result.
type RedirectCompletion struct {
	Outcome core.RedirectOutcome
	Session core.Session
}

type ConnectCommand struct {
	service MutatingService
}

func NewConnectCommand(service MutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	session, err := c.service.Connect(ctx, msg.Hint)
	if err != nil {
		return err
	}
	storeResult(ctx, session)
	return nil
}

type DisconnectCommand struct {
	service MutatingService
}

func NewDisconnectCommand(service MutatingService) *DisconnectCommand {
	return &DisconnectCommand{service: service}
}

func (c *DisconnectCommand) Execute(ctx context.Context, _ DisconnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disconnect service is required")
	}
	return c.service.Disconnect(ctx)
}

type SwitchProviderCommand struct {
	service MutatingService
}

func NewSwitchProviderCommand(service MutatingService) *SwitchProviderCommand {
	return &SwitchProviderCommand{service: service}
}

func (c *SwitchProviderCommand) Execute(ctx context.Context, _ SwitchProviderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: switch provider service is required")
	}
	session, err := c.service.SwitchProvider(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, session)
	return nil
}

type CompleteRedirectCommand struct {
	service MutatingService
}

func NewCompleteRedirectCommand(service MutatingService) *CompleteRedirectCommand {
	return &CompleteRedirectCommand{service: service}
}

func (c *CompleteRedirectCommand) Execute(ctx context.Context, _ CompleteRedirectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: redirect service is required")
	}
	outcome, session, err := c.service.CompleteRedirect(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, RedirectCompletion{Outcome: outcome, Session: session})
	return nil
}

type RevalidateSessionCommand struct {
	service MutatingService
}

func NewRevalidateSessionCommand(service MutatingService) *RevalidateSessionCommand {
	return &RevalidateSessionCommand{service: service}
}

func (c *RevalidateSessionCommand) Execute(ctx context.Context, _ RevalidateSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: revalidate service is required")
	}
	session, err := c.service.Revalidate(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, session)
	return nil
}

type AuthenticatedFetchCommand struct {
	service MutatingService
}

func NewAuthenticatedFetchCommand(service MutatingService) *AuthenticatedFetchCommand {
	return &AuthenticatedFetchCommand{service: service}
}

func (c *AuthenticatedFetchCommand) Execute(ctx context.Context, msg AuthenticatedFetchMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: fetch service is required")
	}
	res, err := c.service.AuthenticatedFetch(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, res)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
