package authgate

import "context"

type ctxKey string

const (
	ctxKeyIdentityID ctxKey = "authgate_identity_id"
	ctxKeyBusinessID ctxKey = "authgate_business_id"
	ctxKeySnapshot   ctxKey = "authgate_cookie_snapshot"
)

// WithIdentityID stores the authenticated identity id in the context.
func WithIdentityID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyIdentityID, id)
}

// IdentityIDFromContext extracts the authenticated identity id from the context.
func IdentityIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyIdentityID).(string)
	return v
}

// WithBusinessID stores the active business id in the context so
// tenant-scoped data calls downstream can assert scoping.
func WithBusinessID(ctx context.Context, businessID string) context.Context {
	return context.WithValue(ctx, ctxKeyBusinessID, businessID)
}

// BusinessIDFromContext extracts the active business id from the context.
func BusinessIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyBusinessID).(string)
	return v
}

// WithCookieSnapshot stores the per-request cookie snapshot in the context.
func WithCookieSnapshot(ctx context.Context, snap CookieSnapshot) context.Context {
	return context.WithValue(ctx, ctxKeySnapshot, snap)
}

// CookieSnapshotFromContext extracts the cookie snapshot from the context.
// The second return value is false if no snapshot was recorded.
func CookieSnapshotFromContext(ctx context.Context) (CookieSnapshot, bool) {
	v, ok := ctx.Value(ctxKeySnapshot).(CookieSnapshot)
	return v, ok
}
