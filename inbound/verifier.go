package inbound

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const defaultSignatureHeader = "x-walletauth-signature"

// HMACVerifier checks the hex encoded HMAC-SHA256 the backend computes over
// the raw payload with the shared push secret.
type HMACVerifier struct {
	Secret []byte
	// Header overrides where the signature is read from.
	Header string
}

func NewHMACVerifier(secret []byte) *HMACVerifier {
	return &HMACVerifier{Secret: secret}
}

func (v *HMACVerifier) Verify(_ context.Context, notification Notification) error {
	if v == nil || len(v.Secret) == 0 {
		return inboundInternal("inbound: verifier secret is not configured", nil)
	}
	header := strings.TrimSpace(v.Header)
	if header == "" {
		header = defaultSignatureHeader
	}
	provided := headerValue(notification.Headers, header)
	if provided == "" {
		return inboundBadInput("inbound: signature header is missing", map[string]any{
			"header": header,
		})
	}
	decoded, err := hex.DecodeString(provided)
	if err != nil {
		return inboundBadInput("inbound: signature is not valid hex", map[string]any{
			"header": header,
		})
	}
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(notification.Payload)
	if !hmac.Equal(decoded, mac.Sum(nil)) {
		return inboundAuth("inbound: signature mismatch", map[string]any{
			"header": header,
		})
	}
	return nil
}

// Sign computes the signature a backend would attach, for tests and local
// tooling.
func (v *HMACVerifier) Sign(payload []byte) string {
	if v == nil || len(v.Secret) == 0 {
		return ""
	}
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ Verifier = (*HMACVerifier)(nil)
