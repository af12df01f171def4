package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

var (
	ErrProviderNotFound  = errors.New("core: provider not registered")
	ErrFetchNotSupported = errors.New("core: configured session backend does not support authenticated fetch")
)

// AuthenticatedFetcher is the optional backend capability used by
// Service.AuthenticatedFetch. The default BackendSessionClient implements
// it; custom SessionBackend fakes may not.
type AuthenticatedFetcher interface {
	AuthenticatedFetch(ctx context.Context, req FetchRequest) (TransportResponse, error)
}

// ProviderResolverFunc adapts a function to the ProviderResolver contract.
type ProviderResolverFunc func(ctx context.Context, execCtx ExecutionContext) (string, error)

func (f ProviderResolverFunc) ResolveProvider(ctx context.Context, execCtx ExecutionContext) (string, error) {
	if f == nil {
		return "", fmt.Errorf("core: provider resolver is required")
	}
	return f(ctx, execCtx)
}

// StaticProviderResolver always selects one provider; the fallback when no
// context-aware resolver is wired.
type StaticProviderResolver struct {
	Name string
}

func (r StaticProviderResolver) ResolveProvider(context.Context, ExecutionContext) (string, error) {
	name := normalizeProviderName(r.Name)
	if name == "" {
		return "", fmt.Errorf("core: static provider resolver requires a provider name")
	}
	return name, nil
}

// Service is the authentication orchestrator: it selects and drives the
// provider for the current execution context, exchanges provider
// credentials for backend-verified sessions, and owns every session
// mutation. Observers only read published snapshots and call methods here.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	registry        Registry
	resolver        ProviderResolver
	execCtxSource   ExecutionContextSource
	tokens          TokenStore
	cache           *ResourceCache
	backend         SessionBackend
	activity        AuthActivitySink
	guard           *RedirectAttemptGuard
	surface         RedirectSurface
	strategies      map[string]CredentialStrategy
	retrySchedule   []time.Duration
	now             func() time.Time
	sleep           func(ctx context.Context, d time.Duration) error

	mu             sync.Mutex
	session        Session
	observers      []SessionObserver
	activeProvider WalletProvider
	providerEpoch  uint64
}

// ServiceDependencies exposes resolved collaborators for facade wiring.
type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	Registry        Registry
	Resolver        ProviderResolver
	TokenStore      TokenStore
	ResourceCache   *ResourceCache
	Backend         SessionBackend
	ActivitySink    AuthActivitySink
	RedirectGuard   *RedirectAttemptGuard
	RedirectSurface RedirectSurface
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("walletauth", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("walletauth"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewWalletProviderRegistry()
	}
	if builder.resolver == nil {
		builder.resolver = StaticProviderResolver{Name: ProviderSocial}
	}
	if builder.execCtxSource == nil {
		builder.execCtxSource = func(context.Context) ExecutionContext {
			return ExecutionContext{}
		}
	}
	if builder.tokenStore == nil {
		if builder.durableTokens != nil {
			dual, err := NewDualTokenStore(builder.durableTokens, NewMemoryTokenStore())
			if err != nil {
				return nil, err
			}
			builder.tokenStore = dual
		} else {
			builder.tokenStore = NewMemoryTokenStore()
		}
	}
	if builder.resourceCache == nil {
		builder.resourceCache = NewResourceCache()
	}
	if builder.redirectGuard == nil {
		builder.redirectGuard = SharedRedirectAttemptGuard()
	}
	if len(builder.retrySchedule) == 0 {
		builder.retrySchedule = defaultRedirectRetrySchedule
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.backend == nil {
		if builder.transport == nil {
			return nil, fmt.Errorf("core: a session backend or transport adapter is required")
		}
		client, clientErr := NewBackendSessionClient(
			finalConfig.Backend,
			builder.transport,
			builder.tokenStore,
			logger,
		)
		if clientErr != nil {
			return nil, mapBuildError(builder.errorMapper, clientErr)
		}
		builder.backend = client
	}

	svc := &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		registry:        builder.registry,
		resolver:        builder.resolver,
		execCtxSource:   builder.execCtxSource,
		tokens:          builder.tokenStore,
		cache:           builder.resourceCache,
		backend:         builder.backend,
		activity:        builder.activitySink,
		guard:           builder.redirectGuard,
		surface:         builder.redirectSurface,
		strategies:      builder.strategies,
		retrySchedule:   builder.retrySchedule,
		now:             builder.now,
		sleep:           builder.sleep,
		session:         Session{IsInitializing: true},
		observers:       append([]SessionObserver(nil), builder.sessionObservers...),
	}

	if client, ok := svc.backend.(*BackendSessionClient); ok {
		client.OnUnauthorized(func(ctx context.Context) {
			svc.clearLocalSession(ctx)
		})
	}

	return svc, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		Registry:        s.registry,
		Resolver:        s.resolver,
		TokenStore:      s.tokens,
		ResourceCache:   s.cache,
		Backend:         s.backend,
		ActivitySink:    s.activity,
		RedirectGuard:   s.guard,
		RedirectSurface: s.surface,
	}
}

// Session returns the current snapshot.
func (s *Service) Session() Session {
	if s == nil {
		return Session{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.clone()
}

// Subscribe registers an observer; it immediately receives the current
// snapshot so late subscribers never miss state.
func (s *Service) Subscribe(observer SessionObserver) {
	if s == nil || observer == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, observer)
	snapshot := s.session.clone()
	s.mu.Unlock()
	observer.OnSessionChanged(snapshot)
}

// publish is the single transition function every session mutation funnels
// through. The invariants IsAuthenticated => IsConnected and User != nil =>
// IsAuthenticated are normalized on every snapshot before observers run.
func (s *Service) publish(mutate func(session *Session)) Session {
	s.mu.Lock()
	next := s.session.clone()
	if mutate != nil {
		mutate(&next)
	}
	if next.User != nil {
		next.IsAuthenticated = true
	}
	if next.IsAuthenticated {
		next.IsConnected = true
	}
	s.session = next
	snapshot := next.clone()
	observers := append([]SessionObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, observer := range observers {
		observer.OnSessionChanged(snapshot.clone())
	}
	return snapshot
}

// Connect runs the full authentication sequence for the provider selected
// by the current execution context. A session that is already authenticated
// is returned unchanged with zero provider or backend calls.
func (s *Service) Connect(ctx context.Context, hint ConnectHint) (session Session, err error) {
	startedAt := s.clock()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "connect", err, fields)
	}()

	if s == nil {
		return Session{}, fmt.Errorf("core: service is not configured")
	}
	if current := s.Session(); current.IsAuthenticated {
		return current, nil
	}

	provider, name, resolveErr := s.selectProvider(ctx, s.execCtxSource(ctx))
	if resolveErr != nil {
		err = s.mapError(resolveErr)
		return s.publishFailure(err), err
	}
	fields["provider"] = name

	if initErr := provider.Initialize(ctx); initErr != nil {
		err = s.mapError(initErr)
		s.recordActivity(ctx, name, "", AuthActionConnect, AuthActivityFailure, err)
		return s.publishFailure(err), err
	}

	result, connectErr := provider.Connect(ctx, hint)
	if connectErr != nil {
		err = s.mapError(connectErr)
		s.recordActivity(ctx, name, "", AuthActionConnect, AuthActivityFailure, err)
		return s.publishFailure(err), err
	}
	if result.Declined {
		reason := strings.TrimSpace(result.Reason)
		if reason == "" {
			reason = "connection declined"
		}
		err = goerrors.New("core: "+reason, goerrors.CategoryOperation).
			WithTextCode(AuthErrorConnectionDeclined)
		s.recordActivity(ctx, name, "", AuthActionConnect, AuthActivityDeclined, err)
		return s.publishFailure(err), err
	}

	if !result.Connected {
		// Redirect-style providers navigate away instead of completing
		// inline; the flow resumes in a fresh page load through
		// CompleteRedirect.
		session = s.publish(func(session *Session) {
			session.IsInitializing = false
			session.Err = nil
		})
		return session, nil
	}

	address := strings.TrimSpace(result.Address)
	if address == "" {
		address = strings.TrimSpace(provider.Address())
	}
	if address == "" {
		err = s.mapError(fmt.Errorf("core: provider %q connected without an address", name))
		return s.publishFailure(err), err
	}
	fields["address"] = address

	// Explicitly modeled intermediate state: wallet reachable, backend
	// verification still pending.
	s.publish(func(session *Session) {
		session.IsConnected = true
		session.IsAuthenticated = false
		session.User = nil
		session.ActiveProvider = name
		session.IsInitializing = false
		session.Err = nil
	})

	session, err = s.completeLogin(ctx, provider, name, address, result)
	if err != nil {
		s.recordActivity(ctx, name, address, AuthActionLogin, AuthActivityFailure, err)
		return session, err
	}
	s.recordActivity(ctx, name, address, AuthActionLogin, AuthActivitySuccess, nil)
	return session, nil
}

// completeLogin turns a connected provider into an authenticated session:
// credential issuance, backend verification, token persistence, cache
// re-ownership, and the final publish, in that order. The token write
// completes before the snapshot is published so observers can call
// AuthenticatedFetch immediately.
func (s *Service) completeLogin(
	ctx context.Context,
	provider WalletProvider,
	name string,
	address string,
	result ConnectResult,
) (Session, error) {
	issued, issueErr := s.issueCredential(ctx, provider, address, result)
	if issueErr != nil {
		err := s.mapError(issueErr)
		return s.publishFailure(err), err
	}

	backendUser, loginErr := s.backend.Login(ctx, issued.Credential, address)
	if loginErr != nil {
		err := s.mapError(loginErr)
		_ = s.tokens.ClearToken(ctx)
		return s.publishFailure(err), err
	}

	if storeErr := s.tokens.SetToken(ctx, issued.Credential); storeErr != nil {
		err := s.mapError(storeErr)
		return s.publishFailure(err), err
	}

	user := mergeUser(backendUser, issued.Profile, result.Profile, name, address)

	// The provider becomes the cache owner and the stale payload is
	// dropped in one synchronous block; no reader can observe the new
	// provider with the old version tag.
	s.mu.Lock()
	s.activeProvider = provider
	s.providerEpoch++
	s.cache.Invalidate()
	s.mu.Unlock()

	snapshot := s.publish(func(session *Session) {
		session.User = &user
		session.Credential = issued.Credential
		session.IsConnected = true
		session.IsAuthenticated = true
		session.ActiveProvider = name
		session.IsInitializing = false
		session.Err = nil
	})
	return snapshot, nil
}

// issueCredential picks the credential source for a connected provider: a
// native identity token when the variant supplies one, challenge-response
// synthesis otherwise.
func (s *Service) issueCredential(
	ctx context.Context,
	provider WalletProvider,
	address string,
	result ConnectResult,
) (IssuedCredential, error) {
	nativeToken := strings.TrimSpace(result.IdentityToken)
	if nativeToken == "" {
		if token, err := provider.IdentityToken(ctx); err == nil {
			nativeToken = strings.TrimSpace(token)
		}
	}

	if nativeToken != "" {
		if strategy, ok := s.strategy(CredentialKindIdentityToken); ok {
			return strategy.Issue(ctx, provider, address)
		}
		return IssuedCredential{
			Credential: nativeToken,
			Address:    address,
			Profile:    copyStringMap(result.Profile),
		}, nil
	}

	caps := provider.Capabilities()
	if caps.AuthenticationOnly {
		return IssuedCredential{}, fmt.Errorf(
			"core: provider %q is authentication-only but supplied no identity token", provider.Name())
	}
	strategy, ok := s.strategy(CredentialKindChallengeSignature)
	if !ok {
		return IssuedCredential{}, fmt.Errorf("core: challenge credential strategy is not configured")
	}
	return strategy.Issue(ctx, provider, address)
}

func (s *Service) strategy(kind string) (CredentialStrategy, bool) {
	if s == nil || len(s.strategies) == 0 {
		return nil, false
	}
	strategy, ok := s.strategies[kind]
	return strategy, ok && strategy != nil
}

// Disconnect clears the session, token store, and resource cache in that
// order, so observers never read a half-cleared state, then revokes at the
// provider best-effort.
func (s *Service) Disconnect(ctx context.Context) (err error) {
	startedAt := s.clock()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "disconnect", err, fields)
	}()

	if s == nil {
		return fmt.Errorf("core: service is not configured")
	}

	s.mu.Lock()
	provider := s.activeProvider
	s.activeProvider = nil
	name := s.session.ActiveProvider
	s.mu.Unlock()
	if name != "" {
		fields["provider"] = name
	}

	_ = s.backendLogout(ctx)

	s.publish(func(session *Session) {
		*session = Session{}
	})
	tokenErr := s.tokens.ClearToken(ctx)
	s.cache.Invalidate()

	var providerErr error
	if provider != nil {
		providerErr = provider.Disconnect(ctx)
	}

	s.recordActivity(ctx, name, "", AuthActionLogout, AuthActivitySuccess, nil)
	if tokenErr != nil {
		err = s.mapError(tokenErr)
		return err
	}
	if providerErr != nil {
		// Provider-side revoke is best-effort; local state is already gone.
		s.logWarn(ctx, "provider disconnect failed", map[string]any{
			"provider": name,
			"error":    providerErr.Error(),
		})
	}
	return nil
}

// SwitchProvider forcibly disconnects the current provider and re-runs the
// selection/connect sequence. It is disconnect-then-connect, never an
// in-place mutation of the existing provider instance.
func (s *Service) SwitchProvider(ctx context.Context) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("core: service is not configured")
	}
	if err := s.Disconnect(ctx); err != nil {
		return s.Session(), err
	}
	session, err := s.Connect(ctx, ConnectHint{})
	status := AuthActivitySuccess
	if err != nil {
		status = AuthActivityFailure
	}
	s.recordActivity(ctx, session.ActiveProvider, "", AuthActionSwitch, status, err)
	return session, err
}

// Revalidate recovers a session surviving a reload: it consults the stored
// token and the backend identity endpoint without triggering any provider
// UI, then publishes the result. Run once at boot and on any revalidation
// schedule.
func (s *Service) Revalidate(ctx context.Context) (session Session, err error) {
	startedAt := s.clock()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "revalidate", err, fields)
	}()

	if s == nil {
		return Session{}, fmt.Errorf("core: service is not configured")
	}

	backendUser, ok, checkErr := s.backend.CheckExistingSession(ctx)
	if checkErr != nil {
		err = s.mapError(checkErr)
		session = s.publish(func(session *Session) {
			session.IsInitializing = false
			session.Err = err
		})
		return session, err
	}
	if !ok {
		session = s.publish(func(session *Session) {
			*session = Session{}
		})
		s.recordActivity(ctx, "", "", AuthActionRevalidate, AuthActivityFailure, nil)
		return session, nil
	}

	token, _ := s.tokens.GetToken(ctx)
	user := mergeUser(backendUser, nil, nil, s.Session().ActiveProvider, backendUser.DisplayAddress)
	session = s.publish(func(session *Session) {
		session.User = &user
		session.Credential = strings.TrimSpace(token)
		session.IsConnected = true
		session.IsAuthenticated = true
		session.IsInitializing = false
		session.Err = nil
	})
	s.recordActivity(ctx, session.ActiveProvider, user.DisplayAddress, AuthActionRevalidate, AuthActivitySuccess, nil)
	return session, nil
}

// AuthenticatedFetch forwards a backend call with the current credential.
// Callers must treat a 401 as "session invalid, re-authenticate"; the local
// session has already been cleared once by the time they see it.
func (s *Service) AuthenticatedFetch(ctx context.Context, req FetchRequest) (TransportResponse, error) {
	if s == nil {
		return TransportResponse{}, fmt.Errorf("core: service is not configured")
	}
	fetcher, ok := s.backend.(AuthenticatedFetcher)
	if !ok {
		return TransportResponse{}, ErrFetchNotSupported
	}
	res, err := fetcher.AuthenticatedFetch(ctx, req)
	if err != nil {
		return TransportResponse{}, s.mapError(err)
	}
	return res, nil
}

// CompleteRedirect reconciles an out-of-band login that returned to the
// current page. Safe to call from every observer mount: the shared guard
// admits exactly one reconciliation per tab.
func (s *Service) CompleteRedirect(ctx context.Context) (outcome RedirectOutcome, session Session, err error) {
	startedAt := s.clock()
	fields := map[string]any{}
	defer func() {
		fields["outcome"] = string(outcome)
		s.observeOperation(ctx, startedAt, "redirect_complete", err, fields)
	}()

	if s == nil {
		return RedirectOutcomeFailed, Session{}, fmt.Errorf("core: service is not configured")
	}
	if s.surface == nil {
		err = fmt.Errorf("core: redirect surface is not configured")
		return RedirectOutcomeFailed, s.Session(), err
	}

	execCtx := s.execCtxSource(ctx)
	execCtx.RedirectMarkersPresent = true
	provider, name, resolveErr := s.selectProvider(ctx, execCtx)
	if resolveErr != nil {
		err = s.mapError(resolveErr)
		return RedirectOutcomeFailed, s.publishFailure(err), err
	}
	fields["provider"] = name

	if initErr := provider.Initialize(ctx); initErr != nil {
		err = s.mapError(initErr)
		s.recordActivity(ctx, name, "", AuthActionRedirect, AuthActivityFailure, err)
		return RedirectOutcomeFailed, s.publishFailure(err), err
	}

	reconciler, buildErr := NewRedirectReconciler(RedirectReconcilerConfig{
		Guard:    s.guard,
		Provider: provider,
		Surface:  s.surface,
		Login: func(ctx context.Context, provider WalletProvider, address string) error {
			s.publish(func(session *Session) {
				session.IsConnected = true
				session.ActiveProvider = name
				session.IsInitializing = false
				session.Err = nil
			})
			_, loginErr := s.completeLogin(ctx, provider, name, address, ConnectResult{Address: address})
			return loginErr
		},
		Schedule: s.retrySchedule,
		Sleep:    s.sleep,
		Logger:   s.logger,
	})
	if buildErr != nil {
		err = s.mapError(buildErr)
		return RedirectOutcomeFailed, s.Session(), err
	}

	outcome, reconcileErr := reconciler.Reconcile(ctx)
	switch outcome {
	case RedirectOutcomeHandled:
		s.recordActivity(ctx, name, provider.Address(), AuthActionRedirect, AuthActivitySuccess, nil)
		return outcome, s.Session(), nil
	case RedirectOutcomeNotDetected, RedirectOutcomeAlreadyClaimed:
		return outcome, s.Session(), nil
	default:
		err = s.mapError(reconcileErr)
		s.recordActivity(ctx, name, "", AuthActionRedirect, AuthActivityFailure, err)
		return outcome, s.publishFailure(err), err
	}
}

// CachedResource returns the provider-derived resource for the current
// session, rebuilding it when the schema version or provider ownership
// changed since it was stored.
func (s *Service) CachedResource(
	ctx context.Context,
	build func(ctx context.Context) (any, error),
) (any, error) {
	if s == nil || s.cache == nil {
		return nil, fmt.Errorf("core: resource cache is not configured")
	}
	s.mu.Lock()
	epoch := s.providerEpoch
	s.mu.Unlock()
	return s.cache.Get(ctx, build, s.config.SchemaVersion, epoch)
}

// ActiveProvider exposes the live provider instance; nil when disconnected.
func (s *Service) ActiveProvider() WalletProvider {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeProvider
}

func (s *Service) selectProvider(ctx context.Context, execCtx ExecutionContext) (WalletProvider, string, error) {
	name, err := s.resolver.ResolveProvider(ctx, execCtx)
	if err != nil {
		return nil, "", err
	}
	name = normalizeProviderName(name)
	provider, ok := s.registry.Get(name)
	if !ok {
		return nil, name, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return provider, name, nil
}

// clearLocalSession drops every local trace of the session. Used by the
// 401 hook; the backend has already rejected the credential so no remote
// revoke is attempted.
func (s *Service) clearLocalSession(ctx context.Context) {
	if s == nil {
		return
	}
	s.publish(func(session *Session) {
		*session = Session{}
	})
	_ = s.tokens.ClearToken(ctx)
	s.cache.Invalidate()
	s.mu.Lock()
	s.activeProvider = nil
	s.mu.Unlock()
}

func (s *Service) backendLogout(ctx context.Context) error {
	if s == nil || s.backend == nil {
		return nil
	}
	if err := s.backend.Logout(ctx); err != nil {
		s.logWarn(ctx, "backend logout failed", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

// publishFailure records a recoverable failure on the session without
// touching the previously established state: no partial login ever lands.
func (s *Service) publishFailure(err error) Session {
	return s.publish(func(session *Session) {
		session.IsInitializing = false
		session.Err = err
	})
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now().UTC()
	}
	return s.now()
}

func (s *Service) recordActivity(
	ctx context.Context,
	provider string,
	address string,
	action string,
	status AuthActivityStatus,
	cause error,
) {
	if s == nil || s.activity == nil {
		return
	}
	entry := AuthActivityEntry{
		Provider:  provider,
		Address:   address,
		Action:    action,
		Status:    status,
		CreatedAt: s.clock(),
	}
	if cause != nil {
		entry.Error = cause.Error()
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logWarn(ctx, "auth activity record failed", map[string]any{
			"action": action,
			"error":  err.Error(),
		})
	}
}

// mergeUser folds backend-verified fields over provider-only profile
// fields, preserving anything the backend does not know about.
func mergeUser(
	backendUser BackendUser,
	issuedProfile map[string]string,
	connectProfile map[string]string,
	providerName string,
	fallbackAddress string,
) User {
	profile := map[string]string{}
	for key, value := range connectProfile {
		profile[key] = value
	}
	for key, value := range issuedProfile {
		profile[key] = value
	}

	user := User{
		ID:             backendUser.ID,
		DisplayAddress: strings.TrimSpace(backendUser.DisplayAddress),
		Email:          strings.TrimSpace(backendUser.Email),
		DisplayName:    strings.TrimSpace(backendUser.DisplayName),
		SourceProvider: providerName,
	}
	if user.DisplayAddress == "" {
		user.DisplayAddress = strings.TrimSpace(fallbackAddress)
	}
	if user.Email == "" {
		user.Email = strings.TrimSpace(profile["email"])
	}
	if user.DisplayName == "" {
		user.DisplayName = strings.TrimSpace(profile["name"])
	}
	return user
}
