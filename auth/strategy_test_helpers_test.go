package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/conduit-ucpi/walletauth/core"
)

type fakeProvider struct {
	name         string
	address      string
	identity     string
	identityErr  error
	signErr      error
	capabilities core.CapabilitySet
	signed       []string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Initialize(context.Context) error { return nil }

func (p *fakeProvider) Connect(context.Context, core.ConnectHint) (core.ConnectResult, error) {
	return core.ConnectResult{Connected: true, Address: p.address}, nil
}

func (p *fakeProvider) Disconnect(context.Context) error { return nil }

func (p *fakeProvider) SignMessage(_ context.Context, message string) (string, error) {
	if p.signErr != nil {
		return "", p.signErr
	}
	p.signed = append(p.signed, message)
	return "sig(" + message + ")", nil
}

func (p *fakeProvider) Connected() bool { return true }

func (p *fakeProvider) Address() string { return p.address }

func (p *fakeProvider) IdentityToken(context.Context) (string, error) {
	if p.identityErr != nil {
		return "", p.identityErr
	}
	return p.identity, nil
}

func (p *fakeProvider) Capabilities() core.CapabilitySet { return p.capabilities }

func encodeTestJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("encode claims: %v", err)
	}
	encode := base64.RawURLEncoding.EncodeToString
	return encode(header) + "." + encode(payload) + "." + encode([]byte("sig"))
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var errSigningRefused = fmt.Errorf("user refused the signing prompt")

func assertOpaque(t *testing.T, credential string) {
	t.Helper()
	if strings.ContainsAny(credential, "{} ") {
		t.Fatalf("credential must be opaque, got %q", credential)
	}
}
