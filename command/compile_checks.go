package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ConnectMessage]            = (*ConnectCommand)(nil)
	_ gocmd.Commander[DisconnectMessage]         = (*DisconnectCommand)(nil)
	_ gocmd.Commander[SwitchProviderMessage]     = (*SwitchProviderCommand)(nil)
	_ gocmd.Commander[CompleteRedirectMessage]   = (*CompleteRedirectCommand)(nil)
	_ gocmd.Commander[RevalidateSessionMessage]  = (*RevalidateSessionCommand)(nil)
	_ gocmd.Commander[AuthenticatedFetchMessage] = (*AuthenticatedFetchCommand)(nil)
)
