package gotrue

import (
	"fmt"
	"strings"

	authgate "github.com/facturo/authgate-go"
)

// Predicate classifies cookie names following the GoTrue convention
// "sb-<project-ref>-auth-token", including the chunked variants
// ("...-auth-token.0", "...-auth-token.1") written for large sessions.
// It also matches the legacy sb-access-token/sb-refresh-token names.
//
// The predicate is versioned by project ref so swapping deployments or
// providers never touches route-gating logic.
type Predicate struct {
	ProjectRef string
}

// compile-time check
var _ authgate.CookiePredicate = Predicate{}

// Matches reports whether name follows the provider's auth-cookie
// convention. Value emptiness is the caller's check.
func (p Predicate) Matches(name string) bool {
	if name == "sb-access-token" || name == "sb-refresh-token" {
		return true
	}
	if p.ProjectRef != "" {
		prefix := fmt.Sprintf("sb-%s-auth-token", p.ProjectRef)
		return name == prefix || strings.HasPrefix(name, prefix+".")
	}
	// Without a project ref, fall back to the shape of the convention:
	// provider marker and auth-token marker both present.
	return strings.HasPrefix(name, "sb-") && strings.Contains(name, "-auth-token")
}

// CookiePredicate returns the predicate for this client's project ref.
func (c *Client) CookiePredicate() authgate.CookiePredicate {
	return Predicate{ProjectRef: c.projectRef}
}
