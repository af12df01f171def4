package walletauth

import (
	"fmt"

	walletcommand "github.com/conduit-ucpi/walletauth/command"
	"github.com/conduit-ucpi/walletauth/core"
	walletquery "github.com/conduit-ucpi/walletauth/query"
)

// CommandQueryService is the slice of the orchestrator the facade wraps.
type CommandQueryService interface {
	walletcommand.MutatingService
	walletquery.SessionReader
}

var _ CommandQueryService = (*core.Service)(nil)

type Commands struct {
	Connect            *walletcommand.ConnectCommand
	Disconnect         *walletcommand.DisconnectCommand
	SwitchProvider     *walletcommand.SwitchProviderCommand
	CompleteRedirect   *walletcommand.CompleteRedirectCommand
	Revalidate         *walletcommand.RevalidateSessionCommand
	AuthenticatedFetch *walletcommand.AuthenticatedFetchCommand
}

type Queries struct {
	GetSession       *walletquery.GetSessionQuery
	GetCapabilities  *walletquery.GetCapabilitiesQuery
	ListAuthActivity *walletquery.ListAuthActivityQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	activityReader walletquery.ActivityReader
}

// WithActivityReader overrides where the activity query reads from; by
// default the facade reads through the service's configured activity sink.
func WithActivityReader(reader walletquery.ActivityReader) FacadeOption {
	return func(options *facadeOptions) {
		options.activityReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("walletauth: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.activityReader
	if reader == nil {
		reader = resolveActivityReader(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Connect:            walletcommand.NewConnectCommand(service),
		Disconnect:         walletcommand.NewDisconnectCommand(service),
		SwitchProvider:     walletcommand.NewSwitchProviderCommand(service),
		CompleteRedirect:   walletcommand.NewCompleteRedirectCommand(service),
		Revalidate:         walletcommand.NewRevalidateSessionCommand(service),
		AuthenticatedFetch: walletcommand.NewAuthenticatedFetchCommand(service),
	}
	facade.queries = Queries{
		GetSession:       walletquery.NewGetSessionQuery(service),
		GetCapabilities:  walletquery.NewGetCapabilitiesQuery(service),
		ListAuthActivity: walletquery.NewListAuthActivityQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func resolveActivityReader(service CommandQueryService) walletquery.ActivityReader {
	if service == nil {
		return nil
	}
	if reader, ok := service.(walletquery.ActivityReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	if deps.ActivitySink == nil {
		return nil
	}
	return deps.ActivitySink
}
