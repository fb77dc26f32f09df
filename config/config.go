// Package config loads SDK configuration from a YAML file with environment
// overrides, so the same build runs locally and deployed.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	authgate "github.com/facturo/authgate-go"
)

// Config is the resolved runtime configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Cookies  CookieConfig   `yaml:"cookies"`
	Session  SessionConfig  `yaml:"session"`
	Paths    PathConfig     `yaml:"paths"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ProviderConfig locates the identity provider.
type ProviderConfig struct {
	URL        string `yaml:"url"`
	ProjectRef string `yaml:"project_ref"`
	APIKey     string `yaml:"api_key"`
}

// CookieConfig shapes the token cookies.
type CookieConfig struct {
	Domain      string `yaml:"domain"`
	Secure      bool   `yaml:"secure"`
	AccessName  string `yaml:"access_name"`
	RefreshName string `yaml:"refresh_name"`
}

// SessionConfig tunes the session state machine.
type SessionConfig struct {
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RefreshBuffer  time.Duration `yaml:"refresh_buffer"`
	TenantCacheTTL time.Duration `yaml:"tenant_cache_ttl"`
}

// PathConfig sets the navigation targets.
type PathConfig struct {
	SignIn         string `yaml:"sign_in"`
	TenantSetup    string `yaml:"tenant_setup"`
	DefaultLanding string `yaml:"default_landing"`
}

// MetricsConfig toggles Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads the YAML file at path (optional: "" skips the file), applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Cookies: CookieConfig{Secure: true},
		Session: SessionConfig{
			IdleTimeout:   authgate.DefaultIdleTimeout,
			RefreshBuffer: authgate.DefaultRefreshBuffer,
		},
		Paths: PathConfig{
			SignIn:         authgate.DefaultSignInPath,
			TenantSetup:    authgate.DefaultTenantSetupPath,
			DefaultLanding: authgate.DefaultLandingPath,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Provider.URL, "AUTHGATE_PROVIDER_URL")
	setString(&cfg.Provider.ProjectRef, "AUTHGATE_PROJECT_REF")
	setString(&cfg.Provider.APIKey, "AUTHGATE_API_KEY")
	setString(&cfg.Cookies.Domain, "AUTHGATE_COOKIE_DOMAIN")
	setBool(&cfg.Cookies.Secure, "AUTHGATE_COOKIE_SECURE")
	setDuration(&cfg.Session.IdleTimeout, "AUTHGATE_IDLE_TIMEOUT")
	setDuration(&cfg.Session.RefreshBuffer, "AUTHGATE_REFRESH_BUFFER")
	setDuration(&cfg.Session.TenantCacheTTL, "AUTHGATE_TENANT_CACHE_TTL")
	setString(&cfg.Paths.SignIn, "AUTHGATE_SIGN_IN_PATH")
	setString(&cfg.Paths.TenantSetup, "AUTHGATE_TENANT_SETUP_PATH")
	setString(&cfg.Paths.DefaultLanding, "AUTHGATE_DEFAULT_LANDING_PATH")
	setBool(&cfg.Metrics.Enabled, "AUTHGATE_METRICS_ENABLED")
}

// Validate checks required fields and value sanity.
func (c *Config) Validate() error {
	if c.Provider.URL == "" {
		return fmt.Errorf("config: provider.url is required")
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("config: session.idle_timeout must not be negative")
	}
	if c.Session.RefreshBuffer < 0 {
		return fmt.Errorf("config: session.refresh_buffer must not be negative")
	}
	return nil
}

// ClientConfig converts the loaded file into the SDK's Config.
func (c *Config) ClientConfig() authgate.Config {
	return authgate.Config{
		SignInPath:         c.Paths.SignIn,
		TenantSetupPath:    c.Paths.TenantSetup,
		DefaultLandingPath: c.Paths.DefaultLanding,
		IdleTimeout:        c.Session.IdleTimeout,
		RefreshBuffer:      c.Session.RefreshBuffer,
		TenantCacheTTL:     c.Session.TenantCacheTTL,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
