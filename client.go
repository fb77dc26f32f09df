// Package authgate provides a framework-agnostic Go SDK for authenticated,
// tenant-scoped sessions.
//
// The SDK owns the authentication session state machine, resolves the single
// active tenant ("business") for a session, gates navigation on both, and
// classifies transport-layer cookies before any page renders. The identity
// provider itself is external and consumed via the Provider capability
// interface; concrete integrations are injected via Option functions.
//
// Example usage with the GoTrue HTTP integration:
//
//	client, err := authgate.NewClient(
//	    authgate.Config{SignInPath: "/login", DefaultLandingPath: "/dashboard"},
//	    authgate.WithProvider(gotrue.New("https://auth.example.com", "myref", apiKey)),
//	    authgate.WithTenantLookup(myLookup),
//	    authgate.WithCookiePredicate(gotrue.Predicate{ProjectRef: "myref"}),
//	)
package authgate

import (
	"fmt"
	"log/slog"
	"time"
)

// Client is the main entry point for auth-gate operations. Capability
// implementations are injected via Option functions; the session manager,
// tenant resolver, and route gate consume them through the Client.
type Client struct {
	config    Config
	logger    *slog.Logger
	provider  Provider
	tenants   TenantLookup
	predicate CookiePredicate
}

// Config holds behavior configuration shared across the SDK.
type Config struct {
	// SignInPath is where unauthenticated navigation redirects.
	// Default: "/login".
	SignInPath string

	// TenantSetupPath is where authenticated navigation without a resolved
	// business redirects. Default: "/dashboard?setup=business".
	TenantSetupPath string

	// DefaultLandingPath replaces rejected return URLs and serves as the
	// post-sign-in destination when none was requested. Default: "/dashboard".
	DefaultLandingPath string

	// IdleTimeout is how long a session may sit without observed user
	// activity before it expires. Default: 30 minutes. To disable idle
	// expiry, call the session manager's InitializeIdleTimer with zero.
	IdleTimeout time.Duration

	// RefreshBuffer is how long before token expiry the proactive refresh
	// fires. Default: 2 minutes.
	RefreshBuffer time.Duration

	// TenantCacheTTL controls how long a resolved business id is served
	// from cache before a fresh remote lookup. Zero means the cached value
	// never goes stale within a session. Default: 0.
	TenantCacheTTL time.Duration

	// OnRemoteSignOut, when set, is invoked after local sign-out completes
	// so embedders can broadcast the event to other tabs or processes.
	// Cross-tab coordination is not built in.
	OnRemoteSignOut func()
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithProvider sets the identity provider implementation.
func WithProvider(p Provider) Option {
	return func(c *Client) { c.provider = p }
}

// WithTenantLookup sets the remote business-id resolution implementation.
func WithTenantLookup(t TenantLookup) Option {
	return func(c *Client) { c.tenants = t }
}

// WithCookiePredicate sets the provider's auth-cookie predicate used by the
// edge heuristic.
func WithCookiePredicate(p CookiePredicate) Option {
	return func(c *Client) { c.predicate = p }
}

// Defaults applied by NewClient when the corresponding Config field is zero.
const (
	DefaultSignInPath      = "/login"
	DefaultTenantSetupPath = "/dashboard?setup=business"
	DefaultLandingPath     = "/dashboard"
	DefaultIdleTimeout     = 30 * time.Minute
	DefaultRefreshBuffer   = 2 * time.Minute
)

// NewClient creates a new auth-gate client with the given configuration and
// options. A Provider is required.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.SignInPath == "" {
		cfg.SignInPath = DefaultSignInPath
	}
	if cfg.TenantSetupPath == "" {
		cfg.TenantSetupPath = DefaultTenantSetupPath
	}
	if cfg.DefaultLandingPath == "" {
		cfg.DefaultLandingPath = DefaultLandingPath
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.RefreshBuffer == 0 {
		cfg.RefreshBuffer = DefaultRefreshBuffer
	}

	c := &Client{config: cfg}
	for _, o := range opts {
		o(c)
	}
	if c.provider == nil {
		return nil, fmt.Errorf("authgate: a Provider is required")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.config }

// Logger returns the structured logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Provider returns the identity provider.
func (c *Client) Provider() Provider { return c.provider }

// Tenants returns the tenant lookup, or nil if not configured.
func (c *Client) Tenants() TenantLookup { return c.tenants }

// Predicate returns the auth-cookie predicate, or nil if not configured.
func (c *Client) Predicate() CookiePredicate { return c.predicate }
