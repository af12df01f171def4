package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Redirect completion markers. Their presence alone, regardless of value,
// indicates an out-of-band login just returned to this page.
const (
	RedirectMarkerConnection = "wallet_redirect"
	RedirectMarkerState      = "wallet_state"
)

var defaultRedirectRetrySchedule = []time.Duration{0, 500 * time.Millisecond, 1500 * time.Millisecond}

type RedirectAttemptState string

const (
	RedirectAttemptIdle     RedirectAttemptState = "idle"
	RedirectAttemptHandling RedirectAttemptState = "handling"
	RedirectAttemptHandled  RedirectAttemptState = "handled"
)

// RedirectAttemptGuard coordinates at most one redirect reconciliation
// across independently constructed reconcilers in the same process. It is
// the only sanctioned shared mutable state in the system.
//
// Exactly one idle -> handling transition succeeds. A failed attempt resets
// the guard to idle once, allowing a single externally-triggered retry;
// after that retry fails the guard parks in handled and is never reset
// automatically.
type RedirectAttemptGuard struct {
	mu         sync.Mutex
	state      RedirectAttemptState
	failedOnce bool
}

func NewRedirectAttemptGuard() *RedirectAttemptGuard {
	return &RedirectAttemptGuard{state: RedirectAttemptIdle}
}

var (
	sharedGuardOnce sync.Once
	sharedGuard     *RedirectAttemptGuard
)

// SharedRedirectAttemptGuard returns the process-wide guard used when
// reconcilers are built without construction-time wiring.
func SharedRedirectAttemptGuard() *RedirectAttemptGuard {
	sharedGuardOnce.Do(func() {
		sharedGuard = NewRedirectAttemptGuard()
	})
	return sharedGuard
}

// TryBegin attempts the idle -> handling transition. All callers that lose
// the race observe handling and must no-op.
func (g *RedirectAttemptGuard) TryBegin() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != RedirectAttemptIdle {
		return false
	}
	g.state = RedirectAttemptHandling
	return true
}

func (g *RedirectAttemptGuard) Finish(success bool) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != RedirectAttemptHandling {
		return
	}
	if success {
		g.state = RedirectAttemptHandled
		return
	}
	if g.failedOnce {
		g.state = RedirectAttemptHandled
		return
	}
	g.failedOnce = true
	g.state = RedirectAttemptIdle
}

func (g *RedirectAttemptGuard) State() RedirectAttemptState {
	if g == nil {
		return RedirectAttemptIdle
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// HasRedirectMarkers reports whether the URL carries redirect-completion
// markers. Presence is checked, values are ignored.
func HasRedirectMarkers(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	query := parsed.Query()
	_, hasConnection := query[RedirectMarkerConnection]
	_, hasState := query[RedirectMarkerState]
	return hasConnection || hasState
}

// StripRedirectMarkers removes the completion markers so a later reload
// cannot re-trigger reconciliation.
func StripRedirectMarkers(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("core: parse redirect url: %w", err)
	}
	query := parsed.Query()
	query.Del(RedirectMarkerConnection)
	query.Del(RedirectMarkerState)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

type RedirectOutcome string

const (
	RedirectOutcomeNotDetected     RedirectOutcome = "not_detected"
	RedirectOutcomeAlreadyClaimed  RedirectOutcome = "already_claimed"
	RedirectOutcomeHandled         RedirectOutcome = "handled"
	RedirectOutcomeFailed          RedirectOutcome = "failed"
	RedirectOutcomeProviderPending RedirectOutcome = "provider_pending"
)

type RedirectReconcilerConfig struct {
	Guard    *RedirectAttemptGuard
	Provider WalletProvider
	Surface  RedirectSurface
	// Login performs credential synthesis and backend login exactly once
	// per successful claim; the orchestrator supplies it.
	Login func(ctx context.Context, provider WalletProvider, address string) error
	// Probe refreshes provider state before each connection check. Redirect
	// providers only adopt a restored bridge session inside Initialize, so
	// without a probe the poll would observe a value nothing updates.
	// Defaults to the provider's Initialize.
	Probe    func(ctx context.Context) error
	Schedule []time.Duration
	Sleep    func(ctx context.Context, d time.Duration) error
	Logger   Logger
}

// RedirectReconciler completes an authentication flow that resumed after an
// external login redirect reloaded the page. State machine:
// idle -> detecting -> handling -> {handled | idle}.
type RedirectReconciler struct {
	guard    *RedirectAttemptGuard
	provider WalletProvider
	surface  RedirectSurface
	login    func(ctx context.Context, provider WalletProvider, address string) error
	probe    func(ctx context.Context) error
	schedule []time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	logger   Logger
}

func NewRedirectReconciler(cfg RedirectReconcilerConfig) (*RedirectReconciler, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("core: redirect reconciler provider is required")
	}
	if cfg.Surface == nil {
		return nil, fmt.Errorf("core: redirect reconciler surface is required")
	}
	if cfg.Login == nil {
		return nil, fmt.Errorf("core: redirect reconciler login callback is required")
	}
	guard := cfg.Guard
	if guard == nil {
		guard = SharedRedirectAttemptGuard()
	}
	schedule := cfg.Schedule
	if len(schedule) == 0 {
		schedule = defaultRedirectRetrySchedule
	}
	probe := cfg.Probe
	if probe == nil {
		probe = cfg.Provider.Initialize
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			if d <= 0 {
				return nil
			}
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		}
	}
	return &RedirectReconciler{
		guard:    guard,
		provider: cfg.Provider,
		surface:  cfg.Surface,
		login:    cfg.Login,
		probe:    probe,
		schedule: append([]time.Duration(nil), schedule...),
		sleep:    sleep,
		logger:   cfg.Logger,
	}, nil
}

// Reconcile inspects the current URL for completion markers, claims the
// shared guard, waits for the provider connection to settle, and performs
// exactly one backend login. Failure leaves the session unauthenticated and
// is never fatal to the process.
func (r *RedirectReconciler) Reconcile(ctx context.Context) (RedirectOutcome, error) {
	if r == nil || r.provider == nil || r.surface == nil || r.login == nil {
		return RedirectOutcomeFailed, fmt.Errorf("core: redirect reconciler is not configured")
	}

	rawURL, err := r.surface.CurrentURL(ctx)
	if err != nil {
		return RedirectOutcomeFailed, redirectError("core: redirect url unavailable", err)
	}
	if !HasRedirectMarkers(rawURL) {
		return RedirectOutcomeNotDetected, nil
	}
	if !r.guard.TryBegin() {
		return RedirectOutcomeAlreadyClaimed, nil
	}

	address, ready := r.waitForProvider(ctx)
	if !ready {
		r.guard.Finish(false)
		return RedirectOutcomeProviderPending, redirectError(
			"core: redirect provider connection did not settle", nil)
	}

	if err := r.login(ctx, r.provider, address); err != nil {
		r.guard.Finish(false)
		return RedirectOutcomeFailed, redirectError("core: redirect login failed", err)
	}

	if stripped, stripErr := StripRedirectMarkers(rawURL); stripErr == nil {
		if replaceErr := r.surface.ReplaceURL(ctx, stripped); replaceErr != nil && r.logger != nil {
			r.logger.Warn("redirect marker cleanup failed", "error", replaceErr.Error())
		}
	}

	r.guard.Finish(true)
	return RedirectOutcomeHandled, nil
}

// waitForProvider polls the provider through the bounded retry schedule,
// re-probing bridge state before each check. Connection state becomes
// consistent asynchronously after a redirect, so the first probes are
// expected to miss.
func (r *RedirectReconciler) waitForProvider(ctx context.Context) (string, bool) {
	for _, delay := range r.schedule {
		if err := r.sleep(ctx, delay); err != nil {
			return "", false
		}
		if err := r.probe(ctx); err != nil {
			if r.logger != nil {
				r.logger.Warn("redirect provider probe failed", "error", err.Error())
			}
			continue
		}
		if r.provider.Connected() {
			if address := strings.TrimSpace(r.provider.Address()); address != "" {
				return address, true
			}
		}
	}
	return "", false
}

func redirectError(message string, cause error) error {
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryOperation).
			WithTextCode(AuthErrorRedirectIncomplete)
	}
	return goerrors.Wrap(cause, goerrors.CategoryOperation, message).
		WithTextCode(AuthErrorRedirectIncomplete)
}
