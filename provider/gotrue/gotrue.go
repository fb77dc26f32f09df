// Package gotrue implements authgate.Provider against a GoTrue-compatible
// HTTP identity endpoint.
//
// Token issuance and verification are the server's job; this client only
// drives the exchange surface (password grant, signup, refresh grant,
// logout) and maps transport failures to the SDK error taxonomy.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authgate "github.com/facturo/authgate-go"
)

// Client is an HTTP client for a GoTrue-compatible auth server.
type Client struct {
	baseURL    string
	projectRef string
	apiKey     string
	httpClient *http.Client
	nowFn      func() time.Time
}

// compile-time check
var _ authgate.Provider = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Client) { g.httpClient = c }
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(g *Client) { g.nowFn = now }
}

// New creates a GoTrue client. baseURL is the auth server root, projectRef
// names the deployment (it also scopes the cookie predicate), and apiKey is
// the public API key sent with every request.
func New(baseURL, projectRef, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		projectRef: projectRef,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		nowFn:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// tokenResponse is the raw JSON response from the token and signup endpoints.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Message     string `json:"msg"`
}

// SignInWithPassword exchanges email/password for credentials.
// Rejected credentials map to InvalidCredentials; transport failures to
// ProviderUnavailable.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*authgate.Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	return c.exchange(ctx, "/token?grant_type=password", body, authgate.CodeInvalidCredentials)
}

// SignUp registers a new user and returns credentials.
func (c *Client) SignUp(ctx context.Context, email, password string) (*authgate.Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	return c.exchange(ctx, "/signup", body, authgate.CodeInvalidCredentials)
}

// RefreshToken exchanges a refresh token for fresh credentials. A rejected
// refresh token maps to SessionExpired.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*authgate.Credentials, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return c.exchange(ctx, "/token?grant_type=refresh_token", body, authgate.CodeSessionExpired)
}

// RevokeSession invalidates the session server-side. Callers treat this as
// best-effort.
func (c *Client) RevokeSession(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return authgate.NewError(authgate.CodeProviderUnavailable, "failed to create logout request", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return authgate.NewError(authgate.CodeProviderUnavailable, "logout request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return authgate.NewError(authgate.CodeProviderUnavailable, fmt.Sprintf("logout endpoint returned %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, path string, body map[string]string, rejectCode authgate.ErrorCode) (*authgate.Credentials, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "provider request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "failed to read response", err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		var errResp errorResponse
		_ = json.Unmarshal(raw, &errResp)
		msg := errResp.Description
		if msg == "" {
			msg = errResp.Message
		}
		return nil, authgate.NewError(rejectCode, msg, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "failed to decode response", err)
	}
	if tok.AccessToken == "" {
		return nil, authgate.NewError(authgate.CodeProviderUnavailable, "empty access_token in response", nil)
	}

	return &authgate.Credentials{
		Identity:     authgate.Identity{ID: tok.User.ID, Email: tok.User.Email},
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    c.expiresAt(tok),
	}, nil
}

// expiresAt prefers expires_in; when absent it falls back to the exp claim
// of the access token, parsed without verification (verification is the
// server's job, and this value only schedules the proactive refresh).
func (c *Client) expiresAt(tok tokenResponse) time.Time {
	if tok.ExpiresIn > 0 {
		return c.nowFn().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Time{}
}
