package authgate

import "context"

// Provider is the capability interface over the identity provider. Token
// issuance and verification internals are the provider's responsibility;
// the SDK only consumes the exchange surface.
// Implementations: provider/gotrue (HTTP), fake/ (testing).
type Provider interface {
	// SignInWithPassword exchanges email/password for credentials.
	SignInWithPassword(ctx context.Context, email, password string) (*Credentials, error)

	// SignUp registers a new user and returns credentials.
	SignUp(ctx context.Context, email, password string) (*Credentials, error)

	// RefreshToken exchanges a refresh token for fresh credentials.
	RefreshToken(ctx context.Context, refreshToken string) (*Credentials, error)

	// RevokeSession invalidates the session on the provider side.
	// Best-effort: local state clears regardless of the outcome.
	RevokeSession(ctx context.Context, accessToken string) error
}

// TenantLookup resolves the active business id for an identity. Absence of
// a result is a legitimate state, not an error: implementations return
// ("", nil) when the identity has no business yet.
type TenantLookup interface {
	// GetCurrentBusinessID returns the single active business id for the
	// identity, or "" if none exists.
	GetCurrentBusinessID(ctx context.Context, identityID string) (string, error)
}

// CookiePredicate classifies cookie names as auth-bearing for a specific
// provider integration. Keeping this narrow lets the edge heuristic swap
// providers without touching route-gating logic.
type CookiePredicate interface {
	// Matches reports whether the cookie name follows the provider's
	// auth-cookie naming convention. Name matching alone is not an
	// authentication signal; callers must also require a non-empty value.
	Matches(name string) bool
}
