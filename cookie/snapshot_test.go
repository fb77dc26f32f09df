package cookie

import (
	"net/http"
	"strings"
	"testing"
)

// prefixPredicate matches names starting with "sb-" and containing
// "-auth-token", mirroring the provider convention.
type prefixPredicate struct{}

func (prefixPredicate) Matches(name string) bool {
	return strings.HasPrefix(name, "sb-") && strings.Contains(name, "-auth-token")
}

func TestSnapshot_MatchingCookieWithValue(t *testing.T) {
	r := requestWithCookies(
		&http.Cookie{Name: "theme", Value: "dark"},
		&http.Cookie{Name: "sb-myref-auth-token", Value: "opaque"},
	)
	snap := Snapshot(r, prefixPredicate{})

	if !snap.HasAuthLikeCookie {
		t.Error("HasAuthLikeCookie = false, want true")
	}
	if len(snap.Names) != 2 {
		t.Errorf("Names = %v, want both cookie names", snap.Names)
	}
}

func TestSnapshot_MatchingNameEmptyValue(t *testing.T) {
	r := requestWithCookies(&http.Cookie{Name: "sb-myref-auth-token", Value: ""})
	snap := Snapshot(r, prefixPredicate{})

	// Presence with a non-empty value is the signal, not the name alone.
	if snap.HasAuthLikeCookie {
		t.Error("HasAuthLikeCookie = true for an empty cookie value, want false")
	}
}

func TestSnapshot_NoMatchingCookies(t *testing.T) {
	r := requestWithCookies(&http.Cookie{Name: "theme", Value: "dark"})
	snap := Snapshot(r, prefixPredicate{})

	if snap.HasAuthLikeCookie {
		t.Error("HasAuthLikeCookie = true, want false")
	}
}

func TestSnapshot_NilPredicate(t *testing.T) {
	r := requestWithCookies(&http.Cookie{Name: "sb-myref-auth-token", Value: "opaque"})
	snap := Snapshot(r, nil)

	if snap.HasAuthLikeCookie {
		t.Error("a nil predicate must never classify a request as authenticated")
	}
}

func TestLikelyAuthenticated_LegacyPairFallback(t *testing.T) {
	ts := NewTokenStore()
	r := requestWithCookies(
		&http.Cookie{Name: DefaultAccessTokenName, Value: "a"},
		&http.Cookie{Name: DefaultRefreshTokenName, Value: "r"},
	)

	// No predicate match, but the legacy pair is complete.
	if !LikelyAuthenticated(r, prefixPredicate{}, ts) {
		t.Error("LikelyAuthenticated = false, want true via legacy pair")
	}

	// A lone access token is not a signal.
	r = requestWithCookies(&http.Cookie{Name: DefaultAccessTokenName, Value: "a"})
	if LikelyAuthenticated(r, prefixPredicate{}, ts) {
		t.Error("LikelyAuthenticated = true with half a legacy pair, want false")
	}
}
