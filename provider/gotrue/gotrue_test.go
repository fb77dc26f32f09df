package gotrue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authgate "github.com/facturo/authgate-go"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, New(srv.URL, "myref", "anon-key")
}

func tokenJSON(expiresIn int64, accessToken string) string {
	return fmt.Sprintf(`{
		"access_token": %q,
		"token_type": "bearer",
		"expires_in": %d,
		"refresh_token": "rt-1",
		"user": {"id": "user-1", "email": "ana@example.com"}
	}`, accessToken, expiresIn)
}

func TestSignInWithPassword_Success(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Error("missing apikey header")
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ana@example.com" || body["password"] != "secret" {
			t.Errorf("unexpected body: %v", body)
		}
		fmt.Fprint(w, tokenJSON(3600, "at-1"))
	})

	creds, err := c.SignInWithPassword(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword error: %v", err)
	}
	if creds.Identity.ID != "user-1" || creds.Identity.Email != "ana@example.com" {
		t.Errorf("identity = %+v", creds.Identity)
	}
	if creds.AccessToken != "at-1" || creds.RefreshToken != "rt-1" {
		t.Errorf("tokens = %q/%q", creds.AccessToken, creds.RefreshToken)
	}
	if until := time.Until(creds.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("ExpiresAt %v not ~1h out", creds.ExpiresAt)
	}
}

func TestSignInWithPassword_InvalidCredentials(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "invalid_grant", "error_description": "Invalid login credentials"}`)
	})

	_, err := c.SignInWithPassword(context.Background(), "ana@example.com", "wrong")
	if !errors.Is(err, authgate.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want InvalidCredentials", err)
	}
}

func TestSignInWithPassword_ServerError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.SignInWithPassword(context.Background(), "ana@example.com", "secret")
	if !errors.Is(err, authgate.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ProviderUnavailable", err)
	}
}

func TestSignInWithPassword_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "myref", "anon-key",
		WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))

	_, err := c.SignInWithPassword(context.Background(), "ana@example.com", "secret")
	if !errors.Is(err, authgate.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ProviderUnavailable", err)
	}
}

func TestSignUp_Success(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/signup" {
			t.Errorf("path = %s, want /signup", r.URL.Path)
		}
		fmt.Fprint(w, tokenJSON(3600, "at-1"))
	})

	creds, err := c.SignUp(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if creds.Identity.ID != "user-1" {
		t.Errorf("identity = %+v", creds.Identity)
	}
}

func TestRefreshToken_RejectedMapsToSessionExpired(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %s", r.URL.Query().Get("grant_type"))
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "invalid_grant", "error_description": "Invalid Refresh Token"}`)
	})

	_, err := c.RefreshToken(context.Background(), "stale")
	if !errors.Is(err, authgate.ErrSessionExpired) {
		t.Fatalf("err = %v, want SessionExpired", err)
	}
}

func TestRevokeSession_BestEffort(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logout" {
			t.Errorf("path = %s, want /logout", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.RevokeSession(context.Background(), "at-1"); err != nil {
		t.Fatalf("RevokeSession error: %v", err)
	}
	if gotAuth != "Bearer at-1" {
		t.Errorf("Authorization = %q, want Bearer at-1", gotAuth)
	}
}

// unverifiedJWT builds a syntactically valid JWT with the given exp claim
// and an unsigned signature segment.
func unverifiedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	header := enc(map[string]string{"alg": "HS256", "typ": "JWT"})
	claims := enc(map[string]int64{"exp": exp.Unix()})
	return header + "." + claims + ".sig"
}

func TestExpiry_FallsBackToTokenClaim(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := unverifiedJWT(t, exp)
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, tokenJSON(0, token))
	})

	creds, err := c.SignInWithPassword(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword error: %v", err)
	}
	if !creds.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v from token exp claim", creds.ExpiresAt, exp)
	}
}
