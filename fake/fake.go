// Package fake provides in-memory Provider and TenantLookup implementations
// for testing.
//
// Use fake.New() in unit tests to avoid network calls; counters and
// barriers make single-flight and race behavior observable.
package fake

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	authgate "github.com/facturo/authgate-go"
)

type userEntry struct {
	id       string
	email    string
	password string
}

// Fake implements authgate.Provider and authgate.TenantLookup in memory.
type Fake struct {
	mu            sync.Mutex
	users         map[string]*userEntry // email → user
	businesses    map[string]string     // identityID → businessID
	refreshTokens map[string]string     // refresh token → identityID
	tokenSeq      int

	tokenTTL     time.Duration
	providerDown bool
	rejectNext   bool
	failNext     error
	lookupErr    error

	refreshCalls int64
	lookupCalls  int64
	revokeCalls  int64

	refreshStarted chan<- struct{}
	refreshRelease <-chan struct{}
	lookupStarted  chan<- struct{}
	lookupRelease  <-chan struct{}
}

// compile-time checks
var (
	_ authgate.Provider     = (*Fake)(nil)
	_ authgate.TenantLookup = (*Fake)(nil)
)

// Option configures the fake.
type Option func(*Fake)

// WithUser adds a known user.
func WithUser(id, email, password string) Option {
	return func(f *Fake) {
		f.users[email] = &userEntry{id: id, email: email, password: password}
	}
}

// WithBusiness maps an identity to its active business.
func WithBusiness(identityID, businessID string) Option {
	return func(f *Fake) { f.businesses[identityID] = businessID }
}

// WithTokenTTL sets credential lifetime. Default: 1 hour.
func WithTokenTTL(d time.Duration) Option {
	return func(f *Fake) { f.tokenTTL = d }
}

// WithProviderDown makes every provider call fail with ProviderUnavailable.
func WithProviderDown() Option {
	return func(f *Fake) { f.providerDown = true }
}

// WithLookupFailure makes tenant lookups fail with the given error.
func WithLookupFailure(err error) Option {
	return func(f *Fake) { f.lookupErr = err }
}

// WithRefreshBarrier makes RefreshToken signal started and then block
// until release is closed, so tests can interleave operations around an
// in-flight refresh deterministically.
func WithRefreshBarrier(started chan<- struct{}, release <-chan struct{}) Option {
	return func(f *Fake) {
		f.refreshStarted = started
		f.refreshRelease = release
	}
}

// WithLookupBarrier is WithRefreshBarrier for tenant lookups.
func WithLookupBarrier(started chan<- struct{}, release <-chan struct{}) Option {
	return func(f *Fake) {
		f.lookupStarted = started
		f.lookupRelease = release
	}
}

// New creates a fake with the given fixtures.
func New(opts ...Option) *Fake {
	f := &Fake{
		users:         make(map[string]*userEntry),
		businesses:    make(map[string]string),
		refreshTokens: make(map[string]string),
		tokenTTL:      1 * time.Hour,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// RejectNextRefresh makes the next refresh fail as a rejected token.
func (f *Fake) RejectNextRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectNext = true
}

// FailNextRefresh makes the next refresh fail with the given error without
// invalidating the token, simulating a transient provider outage.
func (f *Fake) FailNextRefresh(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = err
}

// RefreshCalls returns how many refresh exchanges reached the provider.
func (f *Fake) RefreshCalls() int64 { return atomic.LoadInt64(&f.refreshCalls) }

// LookupCalls returns how many tenant lookups reached the backend.
func (f *Fake) LookupCalls() int64 { return atomic.LoadInt64(&f.lookupCalls) }

// RevokeCalls returns how many revocations reached the provider.
func (f *Fake) RevokeCalls() int64 { return atomic.LoadInt64(&f.revokeCalls) }

// SignInWithPassword implements authgate.Provider.
func (f *Fake) SignInWithPassword(_ context.Context, email, password string) (*authgate.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.providerDown {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "fake provider is down", nil)
	}
	u, ok := f.users[email]
	if !ok || u.password != password {
		return nil, authgate.NewError(authgate.CodeInvalidCredentials, "invalid login credentials", nil)
	}
	return f.issueLocked(u), nil
}

// SignUp implements authgate.Provider.
func (f *Fake) SignUp(_ context.Context, email, password string) (*authgate.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.providerDown {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "fake provider is down", nil)
	}
	if _, exists := f.users[email]; exists {
		return nil, authgate.NewError(authgate.CodeInvalidCredentials, "user already registered", nil)
	}
	u := &userEntry{id: fmt.Sprintf("user-%d", len(f.users)+1), email: email, password: password}
	f.users[email] = u
	return f.issueLocked(u), nil
}

// RefreshToken implements authgate.Provider.
func (f *Fake) RefreshToken(_ context.Context, refreshToken string) (*authgate.Credentials, error) {
	atomic.AddInt64(&f.refreshCalls, 1)

	if f.refreshStarted != nil {
		f.refreshStarted <- struct{}{}
	}
	if f.refreshRelease != nil {
		<-f.refreshRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.providerDown {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "fake provider is down", nil)
	}
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	if f.rejectNext {
		f.rejectNext = false
		return nil, authgate.NewError(authgate.CodeSessionExpired, "refresh token revoked", nil)
	}
	identityID, ok := f.refreshTokens[refreshToken]
	if !ok {
		return nil, authgate.NewError(authgate.CodeSessionExpired, "unknown refresh token", nil)
	}
	for _, u := range f.users {
		if u.id == identityID {
			return f.issueLocked(u), nil
		}
	}
	return nil, authgate.NewError(authgate.CodeSessionExpired, "identity no longer exists", nil)
}

// RevokeSession implements authgate.Provider.
func (f *Fake) RevokeSession(_ context.Context, _ string) error {
	atomic.AddInt64(&f.revokeCalls, 1)
	return nil
}

// GetCurrentBusinessID implements authgate.TenantLookup. Identities with no
// business resolve to "" without error.
func (f *Fake) GetCurrentBusinessID(_ context.Context, identityID string) (string, error) {
	atomic.AddInt64(&f.lookupCalls, 1)

	if f.lookupStarted != nil {
		f.lookupStarted <- struct{}{}
	}
	if f.lookupRelease != nil {
		<-f.lookupRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	return f.businesses[identityID], nil
}

func (f *Fake) issueLocked(u *userEntry) *authgate.Credentials {
	f.tokenSeq++
	refresh := fmt.Sprintf("refresh-%s-%d", u.id, f.tokenSeq)
	f.refreshTokens[refresh] = u.id
	return &authgate.Credentials{
		Identity:     authgate.Identity{ID: u.id, Email: u.email},
		AccessToken:  fmt.Sprintf("access-%s-%d", u.id, f.tokenSeq),
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(f.tokenTTL),
	}
}
