// Package providers contains the built-in wallet provider variants: the
// social-login embedded wallet, the injected browser-extension wallet, the
// redirect/deep-link wallet, and the host-application wallet. Each variant
// adapts one runtime bridge to the uniform core.WalletProvider contract so
// the orchestrator never branches on provider identity.
package providers
