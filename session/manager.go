// Package session owns the authentication session state machine.
//
// A Manager tracks exactly one live session: sign-in, sign-up, sign-out,
// single-flight token refresh, and idle-timeout detection. It is the single
// source of truth for "is the user logged in" and exposes the current
// identity to the rest of the system. Sign-out takes priority over any
// in-flight refresh: results from operations started before sign-out are
// discarded rather than applied.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	authgate "github.com/facturo/authgate-go"
	"github.com/facturo/authgate-go/audit"
	"github.com/facturo/authgate-go/metrics"
)

// Manager owns the session state machine. Safe for concurrent use.
type Manager struct {
	client *authgate.Client
	logger *slog.Logger

	mu   sync.Mutex
	sess authgate.Session

	// epoch increments on sign-out, expiry, and Close. Every async
	// operation captures the epoch at start and applies its result only
	// if the epoch is unchanged, so a result arriving after sign-out
	// cannot resurrect the session.
	epoch uint64

	sf singleflight.Group

	idleTimeout  time.Duration
	idleTimer    *time.Timer
	refreshTimer *time.Timer

	observers []func(authgate.Session)

	auditLog *audit.Logger
	met      *metrics.Metrics
	nowFn    func() time.Time

	proactiveRefresh bool
}

// Option configures the Manager.
type Option func(*Manager)

// WithAudit attaches an audit logger; session transitions emit events.
func WithAudit(l *audit.Logger) Option {
	return func(m *Manager) { m.auditLog = l }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Manager) { m.met = met }
}

// WithProactiveRefresh enables or disables the timer-driven refresh that
// fires RefreshBuffer before token expiry. Default: enabled.
func WithProactiveRefresh(enabled bool) Option {
	return func(m *Manager) { m.proactiveRefresh = enabled }
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) { m.nowFn = now }
}

// NewManager creates a session Manager in the Uninitialized state.
func NewManager(client *authgate.Client, opts ...Option) *Manager {
	m := &Manager{
		client:           client,
		logger:           client.Logger(),
		idleTimeout:      client.Config().IdleTimeout,
		nowFn:            time.Now,
		proactiveRefresh: true,
	}
	for _, o := range opts {
		o(m)
	}
	if m.met == nil {
		m.met = metrics.New(false)
	}
	return m
}

// OnChange registers an observer invoked after every state transition with
// a snapshot of the session. Observers run outside the Manager's lock and
// may call back into it.
func (m *Manager) OnChange(fn func(authgate.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Identity returns the current identity without blocking, or nil when
// signed out. It reflects last-known state synchronously.
func (m *Manager) Identity() *authgate.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Identity
}

// Status returns the current session status.
func (m *Manager) Status() authgate.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Status
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() authgate.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// SignIn exchanges email/password for a new session. On success any state
// from a prior session, including a resolved tenant context held by
// observers, is invalidated through the change notification.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*authgate.Identity, error) {
	return m.authenticate(ctx, audit.ActionSignIn, func(ctx context.Context) (*authgate.Credentials, error) {
		return m.client.Provider().SignInWithPassword(ctx, email, password)
	})
}

// SignUp registers a new user and establishes a session.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*authgate.Identity, error) {
	return m.authenticate(ctx, audit.ActionSignUp, func(ctx context.Context) (*authgate.Credentials, error) {
		return m.client.Provider().SignUp(ctx, email, password)
	})
}

// Hydrate establishes a session from a refresh token carried in the cookie
// jar, without user interaction. Used when a page loads with credentials
// already present.
func (m *Manager) Hydrate(ctx context.Context, refreshToken string) (*authgate.Identity, error) {
	return m.authenticate(ctx, audit.ActionRefresh, func(ctx context.Context) (*authgate.Credentials, error) {
		return m.client.Provider().RefreshToken(ctx, refreshToken)
	})
}

func (m *Manager) authenticate(ctx context.Context, action string, exchange func(context.Context) (*authgate.Credentials, error)) (*authgate.Identity, error) {
	m.mu.Lock()
	epoch := m.epoch
	m.sess = authgate.Session{Status: authgate.StatusAuthenticating}
	snap := m.sess
	m.mu.Unlock()
	m.notify(snap)

	creds, err := exchange(ctx)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		// A sign-out or teardown won the race; the result is discarded.
		return nil, authgate.NewError(authgate.CodeSessionExpired, "session ended during authentication", nil)
	}

	if err != nil {
		taxErr := taxonomize(err, authgate.CodeProviderUnavailable, "identity provider request failed")
		m.sess = authgate.Session{Status: authgate.StatusUninitialized}
		snap = m.sess
		m.mu.Unlock()
		m.notify(snap)
		m.met.RecordSignInFailure(string(taxErr.Code))
		m.emit(audit.Event{Action: action, Result: audit.ResultFailure, Error: taxErr.Error()})
		return nil, taxErr
	}

	identity := creds.Identity
	m.sess = authgate.Session{
		Identity:     &identity,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
		Status:       authgate.StatusAuthenticated,
	}
	m.startIdleTimerLocked()
	m.scheduleRefreshLocked()
	snap = m.sess
	m.mu.Unlock()
	m.notify(snap)

	m.met.RecordSignIn()
	m.emit(audit.Event{Action: action, Result: audit.ResultSuccess, IdentityID: identity.ID})
	return &identity, nil
}

// SignOut tears down the session. Always succeeds from the caller's
// perspective: remote revocation is best-effort and local state clears
// regardless. Idempotent, and safe to call concurrently with an in-flight
// refresh: the refresh's result is discarded if it arrives after sign-out
// begins.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	if m.sess.Status == authgate.StatusUninitialized || m.sess.Status == authgate.StatusSigningOut {
		m.mu.Unlock()
		return nil
	}

	accessToken := m.sess.AccessToken
	identityID := ""
	if m.sess.Identity != nil {
		identityID = m.sess.Identity.ID
	}
	m.epoch++
	m.sess.Status = authgate.StatusSigningOut
	m.stopTimersLocked()
	snap := m.sess
	m.mu.Unlock()
	m.notify(snap)

	if accessToken != "" {
		if err := m.client.Provider().RevokeSession(ctx, accessToken); err != nil {
			m.logger.Warn("remote session revocation failed", "error", err)
		}
	}

	m.mu.Lock()
	m.sess = authgate.Session{Status: authgate.StatusUninitialized}
	snap = m.sess
	m.mu.Unlock()
	m.notify(snap)

	m.met.RecordSignOut()
	m.emit(audit.Event{Action: audit.ActionSignOut, Result: audit.ResultSuccess, IdentityID: identityID})

	if cb := m.client.Config().OnRemoteSignOut; cb != nil {
		cb()
	}
	return nil
}

// RefreshSession exchanges the refresh token for fresh credentials.
// Single-flight: concurrent callers during an in-flight refresh share the
// pending provider call and observe an identical resolved session.
func (m *Manager) RefreshSession(ctx context.Context) (*authgate.Session, error) {
	m.mu.Lock()
	switch m.sess.Status {
	case authgate.StatusAuthenticated, authgate.StatusRefreshing:
	default:
		m.mu.Unlock()
		return nil, authgate.NewError(authgate.CodeNoActiveSession, "refresh requires an active session", nil)
	}
	m.mu.Unlock()

	v, err, shared := m.sf.Do("refresh", func() (any, error) {
		return m.doRefresh(ctx)
	})
	if shared {
		m.met.RecordRefreshCoalesced()
	}
	if err != nil {
		return nil, err
	}
	sess := v.(authgate.Session)
	return &sess, nil
}

func (m *Manager) doRefresh(ctx context.Context) (any, error) {
	m.mu.Lock()
	switch m.sess.Status {
	case authgate.StatusAuthenticated, authgate.StatusRefreshing:
	default:
		m.mu.Unlock()
		return nil, authgate.NewError(authgate.CodeNoActiveSession, "session ended before refresh started", nil)
	}
	epoch := m.epoch
	refreshToken := m.sess.RefreshToken
	m.sess.Status = authgate.StatusRefreshing
	snap := m.sess
	m.mu.Unlock()
	m.notify(snap)

	creds, err := m.client.Provider().RefreshToken(ctx, refreshToken)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		// Sign-out began while the refresh was in flight; the result,
		// success or failure, must not be applied.
		return nil, authgate.NewError(authgate.CodeSessionExpired, "session ended during refresh", nil)
	}

	if err != nil {
		taxErr := taxonomize(err, authgate.CodeProviderUnavailable, "token refresh failed")
		if taxErr.Code == authgate.CodeSessionExpired || taxErr.Code == authgate.CodeInvalidCredentials {
			// Refresh token rejected: the session is over.
			notifies := m.expireLocked()
			m.mu.Unlock()
			for _, s := range notifies {
				m.notify(s)
			}
			m.met.RecordRefresh("failure")
			m.met.RecordSessionExpiry("refresh_rejected")
			m.emit(audit.Event{Action: audit.ActionSessionExpired, Result: audit.ResultFailure, Error: taxErr.Error()})
			return nil, authgate.NewError(authgate.CodeSessionExpired, "refresh token rejected", err)
		}
		// Transient provider failure: the current credentials remain
		// valid until their own expiry.
		m.sess.Status = authgate.StatusAuthenticated
		snap = m.sess
		m.mu.Unlock()
		m.notify(snap)
		m.met.RecordRefresh("failure")
		m.emit(audit.Event{Action: audit.ActionRefresh, Result: audit.ResultFailure, Error: taxErr.Error()})
		return nil, taxErr
	}

	identity := creds.Identity
	if identity.ID == "" && m.sess.Identity != nil {
		identity = *m.sess.Identity
	}
	m.sess = authgate.Session{
		Identity:     &identity,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
		Status:       authgate.StatusAuthenticated,
	}
	m.scheduleRefreshLocked()
	snap = m.sess
	m.mu.Unlock()
	m.notify(snap)

	m.met.RecordRefresh("success")
	m.emit(audit.Event{Action: audit.ActionRefresh, Result: audit.ResultSuccess, IdentityID: identity.ID})
	return snap, nil
}

// Close stops all timers and invalidates in-flight operations. The Manager
// must not be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.epoch++
	m.stopTimersLocked()
	m.sess = authgate.Session{Status: authgate.StatusUninitialized}
	m.mu.Unlock()
	return nil
}

// expireLocked transitions Expired → Uninitialized, clearing credentials
// and bumping the epoch. Returns the snapshots to notify after unlocking.
func (m *Manager) expireLocked() []authgate.Session {
	m.epoch++
	m.stopTimersLocked()
	m.sess.Status = authgate.StatusExpired
	expired := m.sess
	// Expired is transient: no residual credentials are retained.
	m.sess = authgate.Session{Status: authgate.StatusUninitialized}
	return []authgate.Session{expired, m.sess}
}

func (m *Manager) notify(snap authgate.Session) {
	m.mu.Lock()
	obs := make([]func(authgate.Session), len(m.observers))
	copy(obs, m.observers)
	m.mu.Unlock()
	for _, fn := range obs {
		fn(snap)
	}
}

func (m *Manager) emit(e audit.Event) {
	if m.auditLog != nil {
		m.auditLog.Log(e)
	}
}

// taxonomize converts an arbitrary error into the taxonomy, preserving an
// existing *authgate.Error unchanged.
func taxonomize(err error, fallback authgate.ErrorCode, msg string) *authgate.Error {
	var e *authgate.Error
	if errors.As(err, &e) {
		return e
	}
	return authgate.NewError(fallback, msg, err)
}
