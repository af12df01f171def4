package core

import (
	"fmt"
	"strings"
	"time"
)

type BackendConfig struct {
	BaseURL      string        `koanf:"base_url" mapstructure:"base_url"`
	LoginPath    string        `koanf:"login_path" mapstructure:"login_path"`
	LogoutPath   string        `koanf:"logout_path" mapstructure:"logout_path"`
	IdentityPath string        `koanf:"identity_path" mapstructure:"identity_path"`
	Timeout      time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type SocialProviderConfig struct {
	ClientID string `koanf:"client_id" mapstructure:"client_id"`
	Issuer   string `koanf:"issuer" mapstructure:"issuer"`
}

type RedirectProviderConfig struct {
	AuthURL     string   `koanf:"auth_url" mapstructure:"auth_url"`
	ReturnURL   string   `koanf:"return_url" mapstructure:"return_url"`
	RetryDelays []string `koanf:"retry_delays" mapstructure:"retry_delays"`
}

type ProvidersConfig struct {
	Social   SocialProviderConfig   `koanf:"social" mapstructure:"social"`
	Redirect RedirectProviderConfig `koanf:"redirect" mapstructure:"redirect"`
}

type Config struct {
	ServiceName string `koanf:"service_name" mapstructure:"service_name"`
	// ChainID identifies the network challenge messages are scoped to.
	ChainID string `koanf:"chain_id" mapstructure:"chain_id"`
	// SchemaVersion tags cached provider-derived resources; bumping it
	// forces every cached resource to rebuild.
	SchemaVersion string          `koanf:"schema_version" mapstructure:"schema_version"`
	Backend       BackendConfig   `koanf:"backend" mapstructure:"backend"`
	Providers     ProvidersConfig `koanf:"providers" mapstructure:"providers"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:   "walletauth",
		ChainID:       "1",
		SchemaVersion: "v1",
		Backend: BackendConfig{
			LoginPath:    "/auth/login",
			LogoutPath:   "/auth/logout",
			IdentityPath: "/auth/identity",
			Timeout:      30 * time.Second,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.SchemaVersion) == "" {
		return fmt.Errorf("core: schema_version is required")
	}
	return nil
}
