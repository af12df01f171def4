package walletauth

import (
	"github.com/conduit-ucpi/walletauth/core"
	"github.com/conduit-ucpi/walletauth/providers"
)

func SocialProvider(cfg providers.SocialProviderConfig) (core.WalletProvider, error) {
	return providers.NewSocialProvider(cfg)
}

func InjectedProvider(cfg providers.InjectedProviderConfig) (core.WalletProvider, error) {
	return providers.NewInjectedProvider(cfg)
}

func RedirectProvider(cfg providers.RedirectProviderConfig) (core.WalletProvider, error) {
	return providers.NewRedirectProvider(cfg)
}

func HostProvider(cfg providers.HostProviderConfig) (core.WalletProvider, error) {
	return providers.NewHostProvider(cfg)
}
