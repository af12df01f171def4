// Package query exposes the orchestrator's read-side operations as
// go-command messages.
package query

import (
	"github.com/conduit-ucpi/walletauth/core"
)

const (
	TypeGetSession       = "walletauth.query.session.get"
	TypeGetCapabilities  = "walletauth.query.capabilities.get"
	TypeListAuthActivity = "walletauth.query.activity.list"
)

type GetSessionMessage struct{}

func (GetSessionMessage) Type() string { return TypeGetSession }

func (GetSessionMessage) Validate() error { return nil }

type GetCapabilitiesMessage struct{}

func (GetCapabilitiesMessage) Type() string { return TypeGetCapabilities }

func (GetCapabilitiesMessage) Validate() error { return nil }

type ListAuthActivityMessage struct {
	Filter core.AuthActivityFilter
}

func (ListAuthActivityMessage) Type() string { return TypeListAuthActivity }

func (m ListAuthActivityMessage) Validate() error {
	if m.Filter.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	return nil
}
