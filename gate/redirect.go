package gate

import (
	"net/url"
	"strings"
)

// ReturnURLParam is the query parameter carrying the original path through
// the sign-in redirect.
const ReturnURLParam = "returnUrl"

// SanitizeReturnURL accepts only URL-encoded relative paths. Absolute URLs,
// scheme-relative ("//host") and backslash variants are replaced with the
// fallback path to prevent open-redirect abuse.
func SanitizeReturnURL(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	if !strings.HasPrefix(raw, "/") {
		return fallback
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return raw
}

// BuildSignInRedirect constructs the sign-in redirect target carrying the
// original path as a URL-encoded returnUrl query parameter.
func BuildSignInRedirect(signInPath, currentPath, fallback string) string {
	ret := SanitizeReturnURL(currentPath, fallback)

	u, err := url.Parse(signInPath)
	if err != nil {
		u = &url.URL{Path: signInPath}
	}
	q := u.Query()
	q.Set(ReturnURLParam, ret)
	u.RawQuery = q.Encode()
	return u.String()
}
