// Package tenant resolves and caches the single active business id for the
// current session, scoping every downstream data call to one tenant.
//
// The cached context is tied to the identity that produced it: switching
// identities, signing out, or session expiry invalidates it before anything
// is resolved for the next identity, so a tenant id can never leak across a
// sign-out/sign-in sequence.
package tenant

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	authgate "github.com/facturo/authgate-go"
	"github.com/facturo/authgate-go/audit"
	"github.com/facturo/authgate-go/metrics"
)

// SessionState is the slice of the session manager the resolver needs.
type SessionState interface {
	// Identity returns the current identity, or nil when signed out.
	Identity() *authgate.Identity

	// Status returns the current session status.
	Status() authgate.SessionStatus
}

// Resolver owns the tenant context for the live session. Safe for
// concurrent use.
type Resolver struct {
	client *authgate.Client
	state  SessionState
	logger *slog.Logger

	mu sync.RWMutex
	// ownerID is the identity id the cached context was resolved for.
	ownerID string
	tc      *authgate.TenantContext

	sf  singleflight.Group
	ttl time.Duration

	auditLog *audit.Logger
	met      *metrics.Metrics
	nowFn    func() time.Time
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithAudit attaches an audit logger.
func WithAudit(l *audit.Logger) Option {
	return func(r *Resolver) { r.auditLog = l }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(met *metrics.Metrics) Option {
	return func(r *Resolver) { r.met = met }
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(r *Resolver) { r.nowFn = now }
}

// NewResolver creates a Resolver bound to the given session state. Register
// ObserveSession with the session manager's OnChange so identity switches
// and sign-outs invalidate the cache.
func NewResolver(client *authgate.Client, state SessionState, opts ...Option) *Resolver {
	r := &Resolver{
		client: client,
		state:  state,
		logger: client.Logger(),
		ttl:    client.Config().TenantCacheTTL,
		nowFn:  time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.met == nil {
		r.met = metrics.New(false)
	}
	return r
}

// ObserveSession invalidates the cached context whenever the session loses
// its identity or changes to a different one. Intended for
// Manager.OnChange.
func (r *Resolver) ObserveSession(s authgate.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tc == nil {
		return
	}
	if !s.Authenticated() || s.Identity == nil || s.Identity.ID != r.ownerID {
		r.tc = nil
		r.ownerID = ""
	}
}

// Invalidate drops the cached context unconditionally.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tc = nil
	r.ownerID = ""
}

// SetBusinessContext records an explicit business id, e.g. after the
// tenant-setup flow completes. Fails with NoActiveSession unless the
// session is authenticated.
func (r *Resolver) SetBusinessContext(businessID string) error {
	identity := r.state.Identity()
	if identity == nil || r.state.Status() != authgate.StatusAuthenticated {
		err := authgate.NewError(authgate.CodeNoActiveSession, "cannot set business context without an authenticated session", nil)
		r.logger.Error("business context rejected", "error", err)
		return err
	}

	r.mu.Lock()
	r.ownerID = identity.ID
	r.tc = &authgate.TenantContext{
		BusinessID: businessID,
		ResolvedAt: r.nowFn(),
		Source:     authgate.SourceCache,
	}
	r.mu.Unlock()

	r.emit(audit.Event{Action: audit.ActionTenantSwitch, Result: audit.ResultSuccess, IdentityID: identity.ID, BusinessID: businessID})
	return nil
}

// CurrentBusinessID returns the cached business id synchronously without
// any network I/O, or "" if unresolved. A cached value belonging to a
// different identity than the current session's is never returned.
func (r *Resolver) CurrentBusinessID() string {
	identity := r.state.Identity()
	if identity == nil {
		return ""
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.tc == nil || r.ownerID != identity.ID {
		return ""
	}
	return r.tc.BusinessID
}

// Context returns a copy of the cached tenant context, or nil.
func (r *Resolver) Context() *authgate.TenantContext {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.tc == nil {
		return nil
	}
	tc := *r.tc
	return &tc
}

// ResolveBusinessID returns the business id from cache when fresh,
// otherwise performs exactly one remote lookup, coalescing concurrent
// callers per identity, then caches the result. A failed lookup resolves
// to "" rather than returning an error: tenant absence is a legitimate
// state, and the failure is logged and counted instead.
func (r *Resolver) ResolveBusinessID(ctx context.Context) (string, error) {
	identity := r.state.Identity()
	if identity == nil {
		return "", authgate.NewError(authgate.CodeNoActiveSession, "cannot resolve business context without a session", nil)
	}

	if id, ok := r.cached(identity.ID); ok {
		r.met.RecordTenantResolution("cache", "hit", 0)
		return id, nil
	}

	v, _, _ := r.sf.Do(identity.ID, func() (any, error) {
		return r.resolveRemote(ctx, identity.ID), nil
	})
	return v.(string), nil
}

func (r *Resolver) cached(identityID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.tc == nil || r.ownerID != identityID {
		return "", false
	}
	if r.ttl > 0 && r.nowFn().Sub(r.tc.ResolvedAt) > r.ttl {
		return "", false
	}
	return r.tc.BusinessID, true
}

func (r *Resolver) resolveRemote(ctx context.Context, identityID string) string {
	lookup := r.client.Tenants()
	if lookup == nil {
		r.logger.Warn("no tenant lookup configured; resolving to no business")
		return ""
	}

	start := r.nowFn()
	businessID, err := lookup.GetCurrentBusinessID(ctx, identityID)
	elapsed := r.nowFn().Sub(start).Seconds()

	if err != nil {
		// Non-fatal: the caller sees "no tenant" and the tenant-setup
		// redirect, not an error page.
		taxErr := authgate.NewError(authgate.CodeTenantResolutionFailed, "remote business lookup failed", err)
		r.logger.Error("tenant resolution failed", "identity_id", identityID, "error", err)
		r.met.RecordTenantResolution("remote", "failure", elapsed)
		r.emit(audit.Event{Action: audit.ActionTenantResolved, Result: audit.ResultFailure, IdentityID: identityID, Error: taxErr.Error()})
		return ""
	}

	r.mu.Lock()
	current := r.state.Identity()
	if current == nil || current.ID != identityID {
		// The session changed while the lookup was in flight; applying
		// the result would attach a tenant to the wrong identity.
		r.mu.Unlock()
		return ""
	}
	r.ownerID = identityID
	r.tc = &authgate.TenantContext{
		BusinessID: businessID,
		ResolvedAt: r.nowFn(),
		Source:     authgate.SourceRemote,
	}
	r.mu.Unlock()

	r.met.RecordTenantResolution("remote", "success", elapsed)
	r.emit(audit.Event{Action: audit.ActionTenantResolved, Result: audit.ResultSuccess, IdentityID: identityID, BusinessID: businessID})
	return businessID
}

func (r *Resolver) emit(e audit.Event) {
	if r.auditLog != nil {
		r.auditLog.Log(e)
	}
}
