package sqlstore

import "github.com/conduit-ucpi/walletauth/core"

var (
	_ core.TokenStore       = (*DurableTokenStore)(nil)
	_ core.TokenStore       = (*CachedTokenStore)(nil)
	_ core.AuthActivitySink = (*ActivityStore)(nil)
)
