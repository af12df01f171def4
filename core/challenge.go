package core

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CredentialKindIdentityToken      = "identity_token"
	CredentialKindChallengeSignature = "challenge_signature"
)

// BuildChallengeMessage renders the human-readable message a wallet signs
// to prove control of an address. The claimed address, timestamp, and a
// random nonce are all embedded so the backend can verify freshness and
// bind the signature to this login attempt.
func BuildChallengeMessage(address string, chainID string, issuedAt time.Time, nonce string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("core: challenge address is required")
	}
	nonce = strings.TrimSpace(nonce)
	if nonce == "" {
		return "", fmt.Errorf("core: challenge nonce is required")
	}
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}
	chainID = strings.TrimSpace(chainID)
	if chainID == "" {
		chainID = "1"
	}
	return fmt.Sprintf(
		"Sign in with address %s\nChain: %s\nIssued: %s\nNonce: %s",
		address,
		chainID,
		issuedAt.UTC().Format(time.RFC3339),
		nonce,
	), nil
}

// NewChallengeNonce returns a random single-use nonce.
func NewChallengeNonce() string {
	return uuid.NewString()
}

// ChallengeCredentialCodec encodes the synthesized challenge payload into
// the opaque bearer string handed to the backend, and back.
type ChallengeCredentialCodec struct{}

func (ChallengeCredentialCodec) Encode(credential ChallengeCredential) (string, error) {
	if strings.TrimSpace(credential.Address) == "" {
		return "", fmt.Errorf("core: challenge credential address is required")
	}
	if strings.TrimSpace(credential.Signature) == "" {
		return "", fmt.Errorf("core: challenge credential signature is required")
	}
	if strings.TrimSpace(credential.Nonce) == "" {
		return "", fmt.Errorf("core: challenge credential nonce is required")
	}
	encoded, err := json.Marshal(credential)
	if err != nil {
		return "", fmt.Errorf("core: encode challenge credential: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(encoded), nil
}

func (ChallengeCredentialCodec) Decode(payload string) (ChallengeCredential, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ChallengeCredential{}, fmt.Errorf("core: challenge credential payload is empty")
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return ChallengeCredential{}, fmt.Errorf("core: decode challenge credential: %w", err)
	}
	decoded := ChallengeCredential{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ChallengeCredential{}, fmt.Errorf("core: decode challenge credential: %w", err)
	}
	return decoded, nil
}
