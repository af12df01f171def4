package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type testWalletProvider struct {
	mu sync.Mutex

	name         string
	capabilities CapabilitySet
	identity     string
	address      string
	signature    string

	connected bool
	declined  bool
	reason    string

	// settleAfterInits, when positive, flips connected once Initialize has
	// been called that many times, mimicking a bridge session that is only
	// adopted by a later state refresh.
	settleAfterInits int

	initErr    error
	connectErr error
	signErr    error

	initCalls       int
	connectCalls    int
	disconnectCalls int
	signCalls       int
}

func (p *testWalletProvider) Name() string { return p.name }

func (p *testWalletProvider) Initialize(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initCalls++
	if p.initErr != nil {
		return p.initErr
	}
	if p.settleAfterInits > 0 && p.initCalls >= p.settleAfterInits {
		p.connected = true
	}
	return nil
}

func (p *testWalletProvider) Connect(_ context.Context, hint ConnectHint) (ConnectResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectCalls++
	if p.connectErr != nil {
		return ConnectResult{}, p.connectErr
	}
	if p.declined {
		return ConnectResult{Declined: true, Reason: p.reason}, nil
	}
	address := p.address
	if hint.Address != "" {
		address = hint.Address
	}
	p.connected = true
	p.address = address
	return ConnectResult{
		Connected:     true,
		Address:       address,
		IdentityToken: p.identity,
	}, nil
}

func (p *testWalletProvider) Disconnect(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnectCalls++
	p.connected = false
	return nil
}

func (p *testWalletProvider) SignMessage(_ context.Context, message string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signCalls++
	if p.signErr != nil {
		return "", p.signErr
	}
	if p.signature != "" {
		return p.signature, nil
	}
	return "signed:" + message, nil
}

func (p *testWalletProvider) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *testWalletProvider) Address() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.address
}

func (p *testWalletProvider) IdentityToken(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.identity == "" {
		return "", fmt.Errorf("test provider: no identity token")
	}
	return p.identity, nil
}

func (p *testWalletProvider) Capabilities() CapabilitySet {
	return p.capabilities
}

type testSessionBackend struct {
	mu sync.Mutex

	user          BackendUser
	existing      bool
	loginErr      error
	checkErr      error
	logoutErr     error
	loginCalls    int
	checkCalls    int
	logoutCalls   int
	lastCred      string
	lastAddress   string
	fetchResponse TransportResponse
	fetchErr      error
}

func (b *testSessionBackend) Login(_ context.Context, credential string, claimedAddress string) (BackendUser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginCalls++
	b.lastCred = credential
	b.lastAddress = claimedAddress
	if b.loginErr != nil {
		return BackendUser{}, b.loginErr
	}
	user := b.user
	if user.DisplayAddress == "" {
		user.DisplayAddress = claimedAddress
	}
	return user, nil
}

func (b *testSessionBackend) CheckExistingSession(context.Context) (BackendUser, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkCalls++
	if b.checkErr != nil {
		return BackendUser{}, false, b.checkErr
	}
	if !b.existing {
		return BackendUser{}, false, nil
	}
	return b.user, true, nil
}

func (b *testSessionBackend) Logout(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCalls++
	return b.logoutErr
}

func (b *testSessionBackend) AuthenticatedFetch(context.Context, FetchRequest) (TransportResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return TransportResponse{}, b.fetchErr
	}
	return b.fetchResponse, nil
}

type failingTokenStore struct {
	setErr   error
	getErr   error
	clearErr error
	inner    *MemoryTokenStore
}

func newFailingTokenStore() *failingTokenStore {
	return &failingTokenStore{inner: NewMemoryTokenStore()}
}

func (s *failingTokenStore) SetToken(ctx context.Context, token string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.inner.SetToken(ctx, token)
}

func (s *failingTokenStore) GetToken(ctx context.Context) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.inner.GetToken(ctx)
}

func (s *failingTokenStore) ClearToken(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.inner.ClearToken(ctx)
}

type memoryActivitySink struct {
	mu      sync.Mutex
	entries []AuthActivityEntry
}

func (s *memoryActivitySink) Record(_ context.Context, entry AuthActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memoryActivitySink) List(_ context.Context, filter AuthActivityFilter) (AuthActivityPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []AuthActivityEntry{}
	for _, entry := range s.entries {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		items = append(items, entry)
	}
	return AuthActivityPage{Items: items, Total: len(items), Page: 1, PerPage: len(items)}, nil
}

type testRedirectSurface struct {
	mu       sync.Mutex
	current  string
	replaced []string
	urlErr   error
}

func (s *testRedirectSurface) CurrentURL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return s.current, nil
}

func (s *testRedirectSurface) ReplaceURL(_ context.Context, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = append(s.replaced, rawURL)
	s.current = rawURL
	return nil
}

type sessionRecorder struct {
	mu        sync.Mutex
	snapshots []Session
}

func (r *sessionRecorder) OnSessionChanged(session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, session)
}

func (r *sessionRecorder) latest() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return Session{}
	}
	return r.snapshots[len(r.snapshots)-1]
}

func (r *sessionRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

type staticStrategy struct {
	kind       string
	credential string
	err        error
}

func (s staticStrategy) Kind() string { return s.kind }

func (s staticStrategy) Issue(_ context.Context, _ WalletProvider, address string) (IssuedCredential, error) {
	if s.err != nil {
		return IssuedCredential{}, s.err
	}
	return IssuedCredential{Credential: s.credential, Address: address}, nil
}

type stubTransport struct {
	mu       sync.Mutex
	handler  func(req TransportRequest) (TransportResponse, error)
	requests []TransportRequest
}

func (t *stubTransport) Kind() string { return "stub" }

func (t *stubTransport) Do(_ context.Context, req TransportRequest) (TransportResponse, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	handler := t.handler
	t.mu.Unlock()
	if handler == nil {
		return TransportResponse{StatusCode: 200, Body: []byte(`{}`)}, nil
	}
	return handler(req)
}

func (t *stubTransport) lastRequest() TransportRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return TransportRequest{}
	}
	return t.requests[len(t.requests)-1]
}

func newTestService(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, options ...Option) (*Service, *testWalletProvider, *testSessionBackend) {
	t.Helper()
	provider := &testWalletProvider{
		name:     ProviderInjected,
		address:  "0xabc123",
		identity: "",
		capabilities: CapabilitySet{
			CanSign:     true,
			CanTransact: true,
		},
	}
	backend := &testSessionBackend{
		user: BackendUser{ID: "user-1", DisplayAddress: "0xabc123", Email: "ada@example.com"},
	}
	base := []Option{
		WithSessionBackend(backend),
		WithProviderResolver(StaticProviderResolver{Name: ProviderInjected}),
		WithRedirectGuard(NewRedirectAttemptGuard()),
		WithCredentialStrategy(staticStrategy{kind: CredentialKindChallengeSignature, credential: "challenge-credential"}),
	}
	svc, err := NewService(Config{ServiceName: "walletauth-test"}, append(base, options...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Dependencies().Registry.Register(provider); err != nil {
		t.Fatalf("register provider: %v", err)
	}
	return svc, provider, backend
}

func mustConnect(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, svc *Service) Session {
	t.Helper()
	session, err := svc.Connect(context.Background(), ConnectHint{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !session.IsAuthenticated {
		t.Fatalf("expected authenticated session, got %+v", session)
	}
	return session
}

func waitFor(timeout time.Duration, check func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return check()
}

func containsAction(entries []AuthActivityEntry, action string, status AuthActivityStatus) bool {
	for _, entry := range entries {
		if entry.Action == action && entry.Status == status {
			return true
		}
	}
	return false
}

func trimmedEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
