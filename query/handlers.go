package query

import (
	"context"

	"github.com/conduit-ucpi/walletauth/core"
)

// SessionReader is the read-side slice of the orchestrator.
type SessionReader interface {
	Session() core.Session
	ActiveProvider() core.WalletProvider
}

type ActivityReader interface {
	List(ctx context.Context, filter core.AuthActivityFilter) (core.AuthActivityPage, error)
}

type GetSessionQuery struct {
	reader SessionReader
}

func NewGetSessionQuery(reader SessionReader) *GetSessionQuery {
	return &GetSessionQuery{reader: reader}
}

func (q *GetSessionQuery) Query(_ context.Context, _ GetSessionMessage) (core.Session, error) {
	if q == nil || q.reader == nil {
		return core.Session{}, queryDependencyError("query: session reader is required")
	}
	return q.reader.Session(), nil
}

type GetCapabilitiesQuery struct {
	reader SessionReader
}

func NewGetCapabilitiesQuery(reader SessionReader) *GetCapabilitiesQuery {
	return &GetCapabilitiesQuery{reader: reader}
}

// Query reports the active provider's capability set. With no active
// provider every capability reads false, which is also what consumers
// should assume before a connect completes.
func (q *GetCapabilitiesQuery) Query(_ context.Context, _ GetCapabilitiesMessage) (core.CapabilitySet, error) {
	if q == nil || q.reader == nil {
		return core.CapabilitySet{}, queryDependencyError("query: session reader is required")
	}
	provider := q.reader.ActiveProvider()
	if provider == nil {
		return core.CapabilitySet{}, nil
	}
	return provider.Capabilities(), nil
}

type ListAuthActivityQuery struct {
	reader ActivityReader
}

func NewListAuthActivityQuery(reader ActivityReader) *ListAuthActivityQuery {
	return &ListAuthActivityQuery{reader: reader}
}

func (q *ListAuthActivityQuery) Query(ctx context.Context, msg ListAuthActivityMessage) (core.AuthActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.AuthActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}
