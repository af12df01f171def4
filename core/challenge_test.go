package core

import (
	"strings"
	"testing"
	"time"
)

func TestBuildChallengeMessage_EmbedsBindingFields(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	message, err := BuildChallengeMessage("0xabc123", "137", issuedAt, "nonce-1")
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	for _, want := range []string{
		"Sign in with address 0xabc123",
		"Chain: 137",
		"Issued: 2026-03-14T09:26:53Z",
		"Nonce: nonce-1",
	} {
		if !strings.Contains(message, want) {
			t.Fatalf("message missing %q:\n%s", want, message)
		}
	}
}

func TestBuildChallengeMessage_RequiresAddressAndNonce(t *testing.T) {
	if _, err := BuildChallengeMessage("", "1", time.Now(), "nonce"); err == nil {
		t.Fatalf("expected error for empty address")
	}
	if _, err := BuildChallengeMessage("0xabc", "1", time.Now(), "  "); err == nil {
		t.Fatalf("expected error for empty nonce")
	}
}

func TestNewChallengeNonce_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		nonce := NewChallengeNonce()
		if nonce == "" {
			t.Fatalf("empty nonce")
		}
		if seen[nonce] {
			t.Fatalf("nonce %q repeated", nonce)
		}
		seen[nonce] = true
	}
}

func TestChallengeCredentialCodec_RoundTrip(t *testing.T) {
	codec := ChallengeCredentialCodec{}
	original := ChallengeCredential{
		Address:   "0xabc123",
		Message:   "Sign in with address 0xabc123",
		Signature: "0xsigned",
		Timestamp: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Nonce:     "nonce-1",
	}

	encoded, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.ContainsAny(encoded, "{}\" ") {
		t.Fatalf("encoded credential must be opaque, got %q", encoded)
	}

	decoded, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Address != original.Address || decoded.Signature != original.Signature || decoded.Nonce != original.Nonce {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Fatalf("timestamp mismatch: %v", decoded.Timestamp)
	}
}

func TestChallengeCredentialCodec_RejectsIncompleteCredential(t *testing.T) {
	codec := ChallengeCredentialCodec{}
	if _, err := codec.Encode(ChallengeCredential{Address: "0xabc"}); err == nil {
		t.Fatalf("expected error without signature")
	}
	if _, err := codec.Decode("not-base64!@#"); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
