package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authgate "github.com/facturo/authgate-go"
)

func requestWithCookies(cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestTokenStore_ReadMissingCookies(t *testing.T) {
	ts := NewTokenStore()
	got := ts.Read(requestWithCookies())
	if got.AccessToken != "" || got.RefreshToken != "" {
		t.Errorf("Read() = %+v, want empty tokens", got)
	}
}

func TestTokenStore_WriteThenRead(t *testing.T) {
	ts := NewTokenStore()
	rec := httptest.NewRecorder()
	ts.Write(rec, authgate.Credentials{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("wrote %d cookies, want 2", len(cookies))
	}
	for _, c := range cookies {
		if !c.HttpOnly {
			t.Errorf("cookie %s should be HttpOnly", c.Name)
		}
		if !c.Secure {
			t.Errorf("cookie %s should be Secure", c.Name)
		}
	}

	got := ts.Read(requestWithCookies(cookies[0], cookies[1]))
	if got.AccessToken != "at-1" || got.RefreshToken != "rt-1" {
		t.Errorf("Read() = %+v, want at-1/rt-1", got)
	}
}

func TestTokenStore_ClearExpiresCookies(t *testing.T) {
	ts := NewTokenStore()
	rec := httptest.NewRecorder()
	ts.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("cleared %d cookies, want 2", len(cookies))
	}
	for _, c := range cookies {
		if c.Value != "" {
			t.Errorf("cookie %s value = %q, want empty", c.Name, c.Value)
		}
		if !c.Expires.Before(time.Now()) {
			t.Errorf("cookie %s should be expired", c.Name)
		}
	}
}

func TestTokenStore_CustomNames(t *testing.T) {
	ts := NewTokenStore(WithNames("my-access", "my-refresh"))
	r := requestWithCookies(
		&http.Cookie{Name: "my-access", Value: "a"},
		&http.Cookie{Name: "my-refresh", Value: "r"},
	)
	got := ts.Read(r)
	if got.AccessToken != "a" || got.RefreshToken != "r" {
		t.Errorf("Read() = %+v, want a/r", got)
	}
}

func TestHasLegacyPair_RequiresBothCookies(t *testing.T) {
	ts := NewTokenStore()

	tests := []struct {
		name    string
		cookies []*http.Cookie
		want    bool
	}{
		{
			name: "both present",
			cookies: []*http.Cookie{
				{Name: DefaultAccessTokenName, Value: "a"},
				{Name: DefaultRefreshTokenName, Value: "r"},
			},
			want: true,
		},
		{
			name:    "access only",
			cookies: []*http.Cookie{{Name: DefaultAccessTokenName, Value: "a"}},
			want:    false,
		},
		{
			name:    "refresh only",
			cookies: []*http.Cookie{{Name: DefaultRefreshTokenName, Value: "r"}},
			want:    false,
		},
		{
			name: "empty values",
			cookies: []*http.Cookie{
				{Name: DefaultAccessTokenName, Value: ""},
				{Name: DefaultRefreshTokenName, Value: ""},
			},
			want: false,
		},
		{
			name:    "no cookies",
			cookies: nil,
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ts.HasLegacyPair(requestWithCookies(tt.cookies...)); got != tt.want {
				t.Errorf("HasLegacyPair() = %v, want %v", got, tt.want)
			}
		})
	}
}
