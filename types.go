package authgate

import "time"

// Identity is the authenticated user principal for a session.
// It is immutable once created; a new sign-in produces a new Identity.
type Identity struct {
	ID    string
	Email string
}

// SessionStatus enumerates the states of the session lifecycle.
type SessionStatus int

const (
	// StatusUninitialized means no authentication attempt has been made,
	// or a previous session was fully torn down.
	StatusUninitialized SessionStatus = iota

	// StatusAuthenticating means a sign-in or sign-up call is in flight.
	StatusAuthenticating

	// StatusAuthenticated means the session holds valid credentials.
	StatusAuthenticated

	// StatusRefreshing means a token refresh is in flight.
	StatusRefreshing

	// StatusExpired means the refresh token was rejected or the idle
	// timer fired; the session is unusable and will reset.
	StatusExpired

	// StatusSigningOut means an explicit sign-out is in progress.
	StatusSigningOut
)

// String returns the lowercase name of the status.
func (s SessionStatus) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	case StatusExpired:
		return "expired"
	case StatusSigningOut:
		return "signing_out"
	default:
		return "unknown"
	}
}

// Session is the lifecycle object tracking authentication state and tokens.
// Exactly one Session is live per Manager; it is the single source of truth
// for "is the user logged in".
type Session struct {
	Identity     *Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Status       SessionStatus
}

// Authenticated reports whether the session currently holds a usable
// identity. Refreshing counts: the previous credentials remain valid until
// the refresh resolves.
func (s Session) Authenticated() bool {
	return s.Identity != nil &&
		(s.Status == StatusAuthenticated || s.Status == StatusRefreshing)
}

// Loading reports whether the session is in a transitional state during
// which navigation decisions must be deferred.
func (s Session) Loading() bool {
	return s.Status == StatusAuthenticating
}

// ContextSource records where a tenant context was resolved from.
type ContextSource int

const (
	// SourceCache means the business id came from the local cache.
	SourceCache ContextSource = iota

	// SourceRemote means the business id came from a remote lookup.
	SourceRemote
)

// String returns the lowercase name of the source.
func (s ContextSource) String() string {
	if s == SourceRemote {
		return "remote"
	}
	return "cache"
}

// TenantContext is the resolved mapping from a Session to its active
// business id. An empty BusinessID means "no tenant resolved". The context
// is scoped to the lifetime of the Session that produced it.
type TenantContext struct {
	BusinessID string
	ResolvedAt time.Time
	Source     ContextSource
}

// Credentials is what an identity provider returns on a successful
// sign-in, sign-up, or refresh exchange.
type Credentials struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// CookieSnapshot is a read-only view of an incoming request's cookies,
// computed once per request and passed down. Never persisted.
type CookieSnapshot struct {
	Names             []string
	HasAuthLikeCookie bool
}
