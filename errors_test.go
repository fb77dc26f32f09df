package authgate_test

import (
	"errors"
	"fmt"
	"testing"

	authgate "github.com/facturo/authgate-go"
)

func TestError_Format(t *testing.T) {
	err := authgate.NewError(authgate.CodeInvalidCredentials, "bad password", nil)
	if got := err.Error(); got != "authgate: invalid_credentials: bad password" {
		t.Errorf("Error() = %q", got)
	}
	bare := authgate.NewError(authgate.CodeSessionExpired, "", nil)
	if got := bare.Error(); got != "authgate: session_expired" {
		t.Errorf("Error() = %q", got)
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := authgate.NewError(authgate.CodeProviderUnavailable, "timeout", errors.New("dial tcp"))
	if !errors.Is(err, authgate.ErrProviderUnavailable) {
		t.Error("errors.Is should match the sentinel with the same code")
	}
	if errors.Is(err, authgate.ErrInvalidCredentials) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestError_IsThroughWrapping(t *testing.T) {
	inner := authgate.NewError(authgate.CodeSessionExpired, "refresh rejected", nil)
	wrapped := fmt.Errorf("session: refresh: %w", inner)
	if !errors.Is(wrapped, authgate.ErrSessionExpired) {
		t.Error("errors.Is should see through fmt.Errorf wrapping")
	}
	if got := authgate.CodeOf(wrapped); got != authgate.CodeSessionExpired {
		t.Errorf("CodeOf() = %q, want session_expired", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := authgate.NewError(authgate.CodeProviderUnavailable, "sign-in", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestCodeOf_NonTaxonomyError(t *testing.T) {
	if got := authgate.CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain error) = %q, want empty", got)
	}
	if got := authgate.CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}
