package gate

import "testing"

func TestSanitizeReturnURL_AcceptsRelativePaths(t *testing.T) {
	tests := []string{
		"/dashboard",
		"/settings/profile",
		"/invoices?page=2",
		"/reports#summary",
	}
	for _, raw := range tests {
		if got := SanitizeReturnURL(raw, "/dashboard"); got != raw {
			t.Errorf("SanitizeReturnURL(%q) = %q, want input unchanged", raw, got)
		}
	}
}

func TestSanitizeReturnURL_RejectsAbsoluteAndMalformed(t *testing.T) {
	tests := []string{
		"https://evil.example",
		"http://evil.example/dashboard",
		"//evil.example/dashboard",
		"/\\evil.example",
		"javascript:alert(1)",
		"dashboard",
		"",
	}
	for _, raw := range tests {
		if got := SanitizeReturnURL(raw, "/dashboard"); got != "/dashboard" {
			t.Errorf("SanitizeReturnURL(%q) = %q, want fallback /dashboard", raw, got)
		}
	}
}

func TestBuildSignInRedirect_EncodesPath(t *testing.T) {
	got := BuildSignInRedirect("/login", "/settings/profile", "/dashboard")
	if got != "/login?returnUrl=%2Fsettings%2Fprofile" {
		t.Errorf("redirect = %q, want /login?returnUrl=%%2Fsettings%%2Fprofile", got)
	}
}

func TestBuildSignInRedirect_ReplacesRejectedPath(t *testing.T) {
	got := BuildSignInRedirect("/login", "https://evil.example", "/dashboard")
	if got != "/login?returnUrl=%2Fdashboard" {
		t.Errorf("redirect = %q, want fallback return url", got)
	}
}
