package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// WalletProvider is the uniform contract every credential source
// implements: social-login embedded wallets, externally installed wallets,
// redirect/deep-link wallets, and host-application wallets.
//
// Initialize is idempotent and must not require user interaction. Connect
// reports user-facing failures in the result, never as an error; only
// configuration and programming mistakes surface as errors. Disconnect is
// best-effort at the provider but must always drop provider-local handles.
type WalletProvider interface {
	Name() string
	Initialize(ctx context.Context) error
	Connect(ctx context.Context, hint ConnectHint) (ConnectResult, error)
	Disconnect(ctx context.Context) error
	SignMessage(ctx context.Context, message string) (string, error)
	Connected() bool
	Address() string
	IdentityToken(ctx context.Context) (string, error)
	Capabilities() CapabilitySet
}

type Registry interface {
	Register(provider WalletProvider) error
	Get(name string) (WalletProvider, bool)
	List() []WalletProvider
}

// TokenStore persists the current session credential. GetToken returns ""
// when no token is stored. ClearToken removes the token from every backing
// scope unconditionally, even scopes that already read as empty.
type TokenStore interface {
	SetToken(ctx context.Context, token string) error
	GetToken(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

// CredentialStrategy turns a connected provider into an opaque bearer
// credential the backend can verify.
type CredentialStrategy interface {
	Kind() string
	Issue(ctx context.Context, provider WalletProvider, address string) (IssuedCredential, error)
}

// SessionBackend exchanges credentials for backend-verified sessions.
type SessionBackend interface {
	Login(ctx context.Context, credential string, claimedAddress string) (BackendUser, error)
	CheckExistingSession(ctx context.Context) (BackendUser, bool, error)
	Logout(ctx context.Context) error
}

// ProviderResolver selects the provider variant for an execution context.
type ProviderResolver interface {
	ResolveProvider(ctx context.Context, execCtx ExecutionContext) (string, error)
}

// ExecutionContextSource reports the runtime signals available when an
// operation runs; the embedding application supplies it.
type ExecutionContextSource func(ctx context.Context) ExecutionContext

// RedirectSurface is the orchestrator's view of the current location: it
// reads the URL a redirect flow returned to and rewrites it once the
// completion markers have been consumed.
type RedirectSurface interface {
	CurrentURL(ctx context.Context) (string, error)
	ReplaceURL(ctx context.Context, rawURL string) error
}

// SessionObserver receives fully-formed session snapshots. Observers only
// read the session and call orchestrator methods; they never mutate state.
type SessionObserver interface {
	OnSessionChanged(session Session)
}

type SessionObserverFunc func(session Session)

func (f SessionObserverFunc) OnSessionChanged(session Session) {
	if f != nil {
		f(session)
	}
}

// SecretProvider encrypts credentials before they reach durable storage.
type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type AuthActivitySink interface {
	Record(ctx context.Context, entry AuthActivityEntry) error
	List(ctx context.Context, filter AuthActivityFilter) (AuthActivityPage, error)
}

type TransportRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    []byte
	Timeout time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// TransportAdapter performs backend HTTP calls. Implementations forward
// cookies between calls so backend session affinity survives a fetch.
type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// RevalidateMessage asks a worker to re-run backend session validation for
// a booted orchestrator, typically on a schedule.
type RevalidateMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type RevalidateNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type RevalidateEnqueuer interface {
	Enqueue(ctx context.Context, msg *RevalidateMessage) error
}

// RevalidateDelivery is a claimed revalidation message awaiting ack or nack.
type RevalidateDelivery interface {
	Message() *RevalidateMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts RevalidateNackOptions) error
}

type RevalidateDequeuer interface {
	Dequeue(ctx context.Context) (RevalidateDelivery, error)
}

// RevalidateWorkerEvent describes one worker attempt over a revalidation job.
type RevalidateWorkerEvent struct {
	Message   *RevalidateMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type RevalidateWorkerHook interface {
	OnStart(ctx context.Context, event RevalidateWorkerEvent)
	OnSuccess(ctx context.Context, event RevalidateWorkerEvent)
	OnFailure(ctx context.Context, event RevalidateWorkerEvent)
	OnRetry(ctx context.Context, event RevalidateWorkerEvent)
}
