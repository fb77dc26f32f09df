// Package ginmw provides Gin HTTP middleware for the auth gate.
//
// EdgeGuard runs at the transport boundary, before any session hydration:
// it snapshots the cookie jar once, classifies the path, and short-circuits
// clearly-unauthenticated requests away from protected paths and
// clearly-authenticated requests away from sign-in/sign-up. The verdict is
// a heuristic; the session manager's authoritative state is still required
// once the page is live.
package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authgate "github.com/facturo/authgate-go"
	"github.com/facturo/authgate-go/cookie"
	"github.com/facturo/authgate-go/gate"
	"github.com/facturo/authgate-go/tenant"
)

// Context keys for storing auth-gate data in gin.Context.
const (
	KeySnapshot   = "authgate_cookie_snapshot"
	KeyRouteClass = "authgate_route_class"
)

// EdgeGuard returns Gin middleware performing cookie-based edge detection.
// The cookie scan and route classification run once per request and are
// stored in the context for downstream handlers.
func EdgeGuard(client *authgate.Client, ts *cookie.TokenStore, classifier *gate.Classifier) gin.HandlerFunc {
	cfg := client.Config()

	return func(c *gin.Context) {
		snap := cookie.Snapshot(c.Request, client.Predicate())
		class := classifier.Classify(c.Request.URL.Path)
		c.Set(KeySnapshot, snap)
		c.Set(KeyRouteClass, class)
		c.Request = c.Request.WithContext(authgate.WithCookieSnapshot(c.Request.Context(), snap))

		likely := snap.HasAuthLikeCookie || (ts != nil && ts.HasLegacyPair(c.Request))

		switch class {
		case gate.ClassProtected:
			if !likely {
				target := gate.BuildSignInRedirect(cfg.SignInPath, c.Request.URL.Path, cfg.DefaultLandingPath)
				c.Redirect(http.StatusFound, target)
				c.Abort()
				return
			}
		case gate.ClassAuth:
			if likely {
				c.Redirect(http.StatusFound, cfg.DefaultLandingPath)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// RequireBusinessContext returns Gin middleware enforcing the tenant
// isolation invariant for data handlers: no tenant-scoped call proceeds
// without a resolved business id. On success the business id is injected
// into the request context for downstream scoping.
func RequireBusinessContext(resolver *tenant.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID, err := resolver.ResolveBusinessID(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
			return
		}
		if businessID == "" {
			c.AbortWithStatusJSON(http.StatusPreconditionFailed, gin.H{"error": "business context not resolved"})
			return
		}

		c.Request = c.Request.WithContext(authgate.WithBusinessID(c.Request.Context(), businessID))
		c.Next()
	}
}

// --- Context helpers ---

// GetSnapshot returns the cookie snapshot recorded by EdgeGuard.
func GetSnapshot(c *gin.Context) authgate.CookieSnapshot {
	v, _ := c.Get(KeySnapshot)
	snap, _ := v.(authgate.CookieSnapshot)
	return snap
}

// GetRouteClass returns the route class recorded by EdgeGuard.
func GetRouteClass(c *gin.Context) gate.RouteClass {
	v, ok := c.Get(KeyRouteClass)
	if !ok {
		return gate.ClassProtected
	}
	class, _ := v.(gate.RouteClass)
	return class
}
