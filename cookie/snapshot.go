package cookie

import (
	"net/http"

	authgate "github.com/facturo/authgate-go"
)

// Snapshot scans the request's cookies exactly once and returns a read-only
// classification. HasAuthLikeCookie is true when any cookie name matches the
// provider's predicate and carries a non-empty value; name alone is not
// enough.
//
// The verdict is a heuristic for edge routing, not an authentication
// decision: it short-circuits obviously-unauthenticated requests away from
// protected paths before session hydration, and the authoritative session
// state is still required once the page is live.
func Snapshot(r *http.Request, pred authgate.CookiePredicate) authgate.CookieSnapshot {
	cookies := r.Cookies()
	snap := authgate.CookieSnapshot{Names: make([]string, 0, len(cookies))}
	for _, c := range cookies {
		snap.Names = append(snap.Names, c.Name)
		if pred != nil && pred.Matches(c.Name) && c.Value != "" {
			snap.HasAuthLikeCookie = true
		}
	}
	return snap
}

// LikelyAuthenticated combines the predicate-based snapshot with the legacy
// token-pair rule. Either signal marks the request as likely authenticated.
func LikelyAuthenticated(r *http.Request, pred authgate.CookiePredicate, ts *TokenStore) bool {
	if Snapshot(r, pred).HasAuthLikeCookie {
		return true
	}
	return ts != nil && ts.HasLegacyPair(r)
}
