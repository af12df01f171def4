package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Registry             = (*WalletProviderRegistry)(nil)
	_ TokenStore           = (*MemoryTokenStore)(nil)
	_ TokenStore           = (*DualTokenStore)(nil)
	_ SessionBackend       = (*BackendSessionClient)(nil)
	_ AuthenticatedFetcher = (*BackendSessionClient)(nil)
	_ ProviderResolver     = StaticProviderResolver{}
	_ ProviderResolver     = (ProviderResolverFunc)(nil)
	_ SessionObserver      = (SessionObserverFunc)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
