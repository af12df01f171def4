package core

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestGoOptionsResolver_RuntimeOverridesLoaded(t *testing.T) {
	defaults := DefaultConfig()
	loaded := Config{
		ServiceName: "walletauth-config",
		ChainID:     "137",
		Backend:     BackendConfig{BaseURL: "https://config.example.com"},
	}
	runtime := Config{
		Backend: BackendConfig{BaseURL: "https://runtime.example.com"},
	}

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Backend.BaseURL != "https://runtime.example.com" {
		t.Fatalf("runtime layer must win, got %q", resolved.Backend.BaseURL)
	}
	if resolved.ChainID != "137" {
		t.Fatalf("loaded layer must override defaults, got %q", resolved.ChainID)
	}
	if resolved.ServiceName != "walletauth-config" {
		t.Fatalf("unexpected service name %q", resolved.ServiceName)
	}
	if resolved.Backend.LoginPath != defaults.Backend.LoginPath {
		t.Fatalf("untouched fields must keep defaults, got %q", resolved.Backend.LoginPath)
	}
}

func TestCfgxConfigProvider_LoadsRawValuesOverDefaults(t *testing.T) {
	provider := NewCfgxConfigProvider(staticRawConfigLoader{Values: map[string]any{
		"service_name": "walletauth-raw",
		"backend": map[string]any{
			"base_url": "https://raw.example.com",
		},
	}})

	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "walletauth-raw" {
		t.Fatalf("expected raw value to win, got %q", cfg.ServiceName)
	}
	if cfg.Backend.BaseURL != "https://raw.example.com" {
		t.Fatalf("expected nested raw value, got %q", cfg.Backend.BaseURL)
	}
	if cfg.SchemaVersion != DefaultConfig().SchemaVersion {
		t.Fatalf("expected default schema version, got %q", cfg.SchemaVersion)
	}
}

func TestConfigValidate_RequiresIdentityFields(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("empty config must fail validation")
	}
	cfg = DefaultConfig()
	cfg.SchemaVersion = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("blank schema version must fail validation")
	}
}

func TestWithRedirectRetrySchedule_CopiesDelays(t *testing.T) {
	builder := defaultServiceBuilder(Config{})
	delays := []time.Duration{time.Second, 2 * time.Second}
	WithRedirectRetrySchedule(delays...)(&builder)
	delays[0] = time.Hour

	if builder.retrySchedule[0] != time.Second {
		t.Fatalf("schedule must be copied, got %v", builder.retrySchedule)
	}
}

func TestNilOptionsAreIgnored(t *testing.T) {
	backend := &testSessionBackend{}
	svc, err := NewService(Config{ServiceName: "walletauth-test"},
		nil,
		WithSessionBackend(backend),
		WithLogger(nil),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if svc.Dependencies().Backend == nil {
		t.Fatalf("expected backend wired")
	}
}
