package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/conduit-ucpi/walletauth/core"
)

var (
	_ gocmd.Querier[GetSessionMessage, core.Session]                = (*GetSessionQuery)(nil)
	_ gocmd.Querier[GetCapabilitiesMessage, core.CapabilitySet]     = (*GetCapabilitiesQuery)(nil)
	_ gocmd.Querier[ListAuthActivityMessage, core.AuthActivityPage] = (*ListAuthActivityQuery)(nil)
)
