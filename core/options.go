package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig    Config
	logger           Logger
	loggerProvider   LoggerProvider
	metricsRecorder  MetricsRecorder
	errorFactory     ErrorFactory
	errorMapper      ErrorMapper
	configProvider   ConfigProvider
	optionsResolver  OptionsResolver
	registry         Registry
	resolver         ProviderResolver
	execCtxSource    ExecutionContextSource
	tokenStore       TokenStore
	durableTokens    TokenStore
	resourceCache    *ResourceCache
	backend          SessionBackend
	transport        TransportAdapter
	activitySink     AuthActivitySink
	redirectGuard    *RedirectAttemptGuard
	redirectSurface  RedirectSurface
	strategies       map[string]CredentialStrategy
	retrySchedule    []time.Duration
	now              func() time.Time
	sleep            func(ctx context.Context, d time.Duration) error
	sessionObservers []SessionObserver
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithRegistry(registry Registry) Option {
	return func(b *serviceBuilder) {
		b.registry = registry
	}
}

func WithProviderResolver(resolver ProviderResolver) Option {
	return func(b *serviceBuilder) {
		b.resolver = resolver
	}
}

func WithExecutionContextSource(source ExecutionContextSource) Option {
	return func(b *serviceBuilder) {
		b.execCtxSource = source
	}
}

// WithTokenStore replaces the whole token store, including the dual-scope
// composition. Prefer WithDurableTokenStore unless a test needs full
// control.
func WithTokenStore(store TokenStore) Option {
	return func(b *serviceBuilder) {
		b.tokenStore = store
	}
}

// WithDurableTokenStore pairs the given durable layer with the default
// process-scoped layer so the session degrades gracefully when either
// storage scope is unavailable.
func WithDurableTokenStore(store TokenStore) Option {
	return func(b *serviceBuilder) {
		b.durableTokens = store
	}
}

func WithResourceCache(cache *ResourceCache) Option {
	return func(b *serviceBuilder) {
		b.resourceCache = cache
	}
}

func WithSessionBackend(backend SessionBackend) Option {
	return func(b *serviceBuilder) {
		b.backend = backend
	}
}

func WithTransportAdapter(adapter TransportAdapter) Option {
	return func(b *serviceBuilder) {
		b.transport = adapter
	}
}

func WithAuthActivitySink(sink AuthActivitySink) Option {
	return func(b *serviceBuilder) {
		b.activitySink = sink
	}
}

func WithRedirectGuard(guard *RedirectAttemptGuard) Option {
	return func(b *serviceBuilder) {
		b.redirectGuard = guard
	}
}

func WithRedirectSurface(surface RedirectSurface) Option {
	return func(b *serviceBuilder) {
		b.redirectSurface = surface
	}
}

func WithCredentialStrategy(strategy CredentialStrategy) Option {
	return func(b *serviceBuilder) {
		if strategy == nil {
			return
		}
		if b.strategies == nil {
			b.strategies = map[string]CredentialStrategy{}
		}
		kind := strings.TrimSpace(strategy.Kind())
		if kind == "" {
			return
		}
		b.strategies[kind] = strategy
	}
}

// WithRedirectRetrySchedule overrides the bounded waits used while a
// provider connection settles after a redirect.
func WithRedirectRetrySchedule(delays ...time.Duration) Option {
	return func(b *serviceBuilder) {
		if len(delays) == 0 {
			return
		}
		b.retrySchedule = append([]time.Duration(nil), delays...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		if now != nil {
			b.now = now
		}
	}
}

func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(b *serviceBuilder) {
		if sleep != nil {
			b.sleep = sleep
		}
	}
}

func WithSessionObserver(observer SessionObserver) Option {
	return func(b *serviceBuilder) {
		if observer != nil {
			b.sessionObservers = append(b.sessionObservers, observer)
		}
	}
}

func defaultServiceBuilder(cfg Config) serviceBuilder {
	return serviceBuilder{
		runtimeConfig: cfg,
		now: func() time.Time {
			return time.Now().UTC()
		},
		sleep: func(ctx context.Context, d time.Duration) error {
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
		},
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.ChainID) != "" {
		layer["chain_id"] = cfg.ChainID
	}
	if includeZero || strings.TrimSpace(cfg.SchemaVersion) != "" {
		layer["schema_version"] = cfg.SchemaVersion
	}

	backend := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Backend.BaseURL) != "" {
		backend["base_url"] = cfg.Backend.BaseURL
	}
	if includeZero || strings.TrimSpace(cfg.Backend.LoginPath) != "" {
		backend["login_path"] = cfg.Backend.LoginPath
	}
	if includeZero || strings.TrimSpace(cfg.Backend.LogoutPath) != "" {
		backend["logout_path"] = cfg.Backend.LogoutPath
	}
	if includeZero || strings.TrimSpace(cfg.Backend.IdentityPath) != "" {
		backend["identity_path"] = cfg.Backend.IdentityPath
	}
	if includeZero || cfg.Backend.Timeout > 0 {
		backend["timeout"] = cfg.Backend.Timeout
	}
	if len(backend) > 0 {
		layer["backend"] = backend
	}

	providers := map[string]any{}
	social := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Providers.Social.ClientID) != "" {
		social["client_id"] = cfg.Providers.Social.ClientID
	}
	if includeZero || strings.TrimSpace(cfg.Providers.Social.Issuer) != "" {
		social["issuer"] = cfg.Providers.Social.Issuer
	}
	if len(social) > 0 {
		providers["social"] = social
	}
	redirect := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Providers.Redirect.AuthURL) != "" {
		redirect["auth_url"] = cfg.Providers.Redirect.AuthURL
	}
	if includeZero || strings.TrimSpace(cfg.Providers.Redirect.ReturnURL) != "" {
		redirect["return_url"] = cfg.Providers.Redirect.ReturnURL
	}
	if includeZero || len(cfg.Providers.Redirect.RetryDelays) > 0 {
		redirect["retry_delays"] = append([]string(nil), cfg.Providers.Redirect.RetryDelays...)
	}
	if len(redirect) > 0 {
		providers["redirect"] = redirect
	}
	if len(providers) > 0 {
		layer["providers"] = providers
	}
	return layer
}

var _ ErrorFactory = goerrors.New
