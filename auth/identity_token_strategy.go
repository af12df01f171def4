package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/conduit-ucpi/walletauth/core"
)

type IdentityTokenStrategyConfig struct {
	// ExpectedIssuer, when set, rejects tokens minted by any other issuer.
	ExpectedIssuer string
	Now            func() time.Time
}

// IdentityTokenStrategy passes a provider-minted identity token through as
// the session credential. The token's claims are inspected without
// signature verification to enrich the user profile and to reject tokens
// that are already expired; cryptographic verification stays with the
// backend.
type IdentityTokenStrategy struct {
	config IdentityTokenStrategyConfig
}

func NewIdentityTokenStrategy(cfg IdentityTokenStrategyConfig) *IdentityTokenStrategy {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &IdentityTokenStrategy{
		config: IdentityTokenStrategyConfig{
			ExpectedIssuer: strings.TrimSpace(cfg.ExpectedIssuer),
			Now:            now,
		},
	}
}

func (*IdentityTokenStrategy) Kind() string {
	return core.CredentialKindIdentityToken
}

func (s *IdentityTokenStrategy) Issue(ctx context.Context, provider core.WalletProvider, address string) (core.IssuedCredential, error) {
	if provider == nil {
		return core.IssuedCredential{}, fmt.Errorf("auth: identity_token provider is required")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		address = strings.TrimSpace(provider.Address())
	}
	if address == "" {
		return core.IssuedCredential{}, fmt.Errorf("auth: identity_token address is required")
	}

	token, err := provider.IdentityToken(ctx)
	if err != nil {
		return core.IssuedCredential{}, fmt.Errorf("auth: identity token unavailable: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return core.IssuedCredential{}, fmt.Errorf("auth: provider returned an empty identity token")
	}

	profile := map[string]string{}
	if strings.Count(token, ".") == 2 {
		claims := jwt.MapClaims{}
		if _, _, parseErr := jwt.NewParser().ParseUnverified(token, claims); parseErr == nil {
			if expiry, expErr := claims.GetExpirationTime(); expErr == nil && expiry != nil {
				if s.config.Now().After(expiry.Time) {
					return core.IssuedCredential{}, fmt.Errorf("auth: identity token is expired")
				}
			}
			if s.config.ExpectedIssuer != "" {
				if issuer, issErr := claims.GetIssuer(); issErr == nil && issuer != "" && issuer != s.config.ExpectedIssuer {
					return core.IssuedCredential{}, fmt.Errorf(
						"auth: identity token issuer %q does not match %q", issuer, s.config.ExpectedIssuer)
				}
			}
			if email := readClaimString(claims, "email"); email != "" {
				profile["email"] = email
			}
			if name := readClaimString(claims, "name", "given_name"); name != "" {
				profile["name"] = name
			}
			if subject := readClaimString(claims, "sub"); subject != "" {
				profile["subject"] = subject
			}
		}
	}

	return core.IssuedCredential{
		Credential: token,
		Address:    address,
		Profile:    profile,
	}, nil
}
