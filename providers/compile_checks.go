package providers

import "github.com/conduit-ucpi/walletauth/core"

var (
	_ core.WalletProvider = (*SocialProvider)(nil)
	_ core.WalletProvider = (*InjectedProvider)(nil)
	_ core.WalletProvider = (*RedirectProvider)(nil)
	_ core.WalletProvider = (*HostProvider)(nil)
)
