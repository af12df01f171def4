package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/conduit-ucpi/walletauth/core"
)

type ChallengeSignatureStrategyConfig struct {
	ChainID string
	Now     func() time.Time
	// Nonce overrides nonce generation; tests pin it for determinism.
	Nonce func() string
}

// ChallengeSignatureStrategy synthesizes a credential for providers that
// hold a signing key but mint no identity token: it builds a freshness-bound
// challenge message, has the wallet sign it, and encodes message plus
// signature into one opaque bearer string.
type ChallengeSignatureStrategy struct {
	config ChallengeSignatureStrategyConfig
	codec  core.ChallengeCredentialCodec
}

func NewChallengeSignatureStrategy(cfg ChallengeSignatureStrategyConfig) *ChallengeSignatureStrategy {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	nonce := cfg.Nonce
	if nonce == nil {
		nonce = core.NewChallengeNonce
	}
	chainID := strings.TrimSpace(cfg.ChainID)
	if chainID == "" {
		chainID = "1"
	}
	return &ChallengeSignatureStrategy{
		config: ChallengeSignatureStrategyConfig{
			ChainID: chainID,
			Now:     now,
			Nonce:   nonce,
		},
	}
}

func (*ChallengeSignatureStrategy) Kind() string {
	return core.CredentialKindChallengeSignature
}

func (s *ChallengeSignatureStrategy) Issue(ctx context.Context, provider core.WalletProvider, address string) (core.IssuedCredential, error) {
	if provider == nil {
		return core.IssuedCredential{}, fmt.Errorf("auth: challenge_signature provider is required")
	}
	if !provider.Capabilities().CanSign {
		return core.IssuedCredential{}, fmt.Errorf(
			"auth: provider %q cannot sign challenge messages", provider.Name())
	}
	address = strings.TrimSpace(address)
	if address == "" {
		address = strings.TrimSpace(provider.Address())
	}
	if address == "" {
		return core.IssuedCredential{}, fmt.Errorf("auth: challenge_signature address is required")
	}

	issuedAt := s.config.Now()
	nonce := strings.TrimSpace(s.config.Nonce())
	if nonce == "" {
		return core.IssuedCredential{}, fmt.Errorf("auth: challenge nonce generation failed")
	}

	message, err := core.BuildChallengeMessage(address, s.config.ChainID, issuedAt, nonce)
	if err != nil {
		return core.IssuedCredential{}, err
	}

	signature, err := provider.SignMessage(ctx, message)
	if err != nil {
		return core.IssuedCredential{}, fmt.Errorf("auth: signing refused: %w", err)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return core.IssuedCredential{}, fmt.Errorf("auth: provider returned an empty signature")
	}

	encoded, err := s.codec.Encode(core.ChallengeCredential{
		Address:   address,
		Message:   message,
		Signature: signature,
		Timestamp: issuedAt,
		Nonce:     nonce,
	})
	if err != nil {
		return core.IssuedCredential{}, err
	}

	return core.IssuedCredential{
		Credential: encoded,
		Address:    address,
		Profile:    map[string]string{},
	}, nil
}
