// Package cookie reads and writes authentication credentials in the
// transport-level cookie jar and classifies incoming requests from cookie
// names alone, ahead of full session hydration.
package cookie

import (
	"net/http"
	"time"

	authgate "github.com/facturo/authgate-go"
)

// Default cookie names for the access/refresh token pair.
const (
	DefaultAccessTokenName  = "sb-access-token"
	DefaultRefreshTokenName = "sb-refresh-token"
)

// Tokens is the credential pair carried in cookies.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// TokenStore reads and writes the auth token cookies. It holds no business
// logic; it is a pure accessor over the request/response cookie jar.
type TokenStore struct {
	accessName  string
	refreshName string
	domain      string
	path        string
	secure      bool
	sameSite    http.SameSite
}

// Option configures the TokenStore.
type Option func(*TokenStore)

// WithNames overrides the access/refresh cookie names.
func WithNames(accessName, refreshName string) Option {
	return func(ts *TokenStore) {
		ts.accessName = accessName
		ts.refreshName = refreshName
	}
}

// WithDomain sets the cookie Domain attribute.
func WithDomain(domain string) Option {
	return func(ts *TokenStore) { ts.domain = domain }
}

// WithSecure sets the cookie Secure attribute.
func WithSecure(secure bool) Option {
	return func(ts *TokenStore) { ts.secure = secure }
}

// WithSameSite sets the cookie SameSite attribute. Default: Lax.
func WithSameSite(mode http.SameSite) Option {
	return func(ts *TokenStore) { ts.sameSite = mode }
}

// NewTokenStore creates a token store with the default cookie names.
func NewTokenStore(opts ...Option) *TokenStore {
	ts := &TokenStore{
		accessName:  DefaultAccessTokenName,
		refreshName: DefaultRefreshTokenName,
		path:        "/",
		secure:      true,
		sameSite:    http.SameSiteLaxMode,
	}
	for _, o := range opts {
		o(ts)
	}
	return ts
}

// Read returns the token pair from the request's cookies. Missing cookies
// yield empty strings.
func (ts *TokenStore) Read(r *http.Request) Tokens {
	var t Tokens
	if c, err := r.Cookie(ts.accessName); err == nil {
		t.AccessToken = c.Value
	}
	if c, err := r.Cookie(ts.refreshName); err == nil {
		t.RefreshToken = c.Value
	}
	return t
}

// Write sets the token cookies on the response. The cookies expire when the
// credentials do.
func (ts *TokenStore) Write(w http.ResponseWriter, creds authgate.Credentials) {
	http.SetCookie(w, ts.cookie(ts.accessName, creds.AccessToken, creds.ExpiresAt))
	http.SetCookie(w, ts.cookie(ts.refreshName, creds.RefreshToken, creds.ExpiresAt))
}

// Clear expires both token cookies. Called on sign-out and session expiry
// so no residual credentials remain.
func (ts *TokenStore) Clear(w http.ResponseWriter) {
	past := time.Unix(0, 0)
	http.SetCookie(w, ts.cookie(ts.accessName, "", past))
	http.SetCookie(w, ts.cookie(ts.refreshName, "", past))
}

// HasLegacyPair reports whether the request carries both legacy token
// cookies with non-empty values. Both must be present: an access token
// without its refresh counterpart is not an authentication signal.
func (ts *TokenStore) HasLegacyPair(r *http.Request) bool {
	t := ts.Read(r)
	return t.AccessToken != "" && t.RefreshToken != ""
}

func (ts *TokenStore) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     ts.path,
		Domain:   ts.domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   ts.secure,
		SameSite: ts.sameSite,
	}
}
