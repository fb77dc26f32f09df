package gate

import (
	"context"
	"testing"

	authgate "github.com/facturo/authgate-go"
)

// stubProvider satisfies authgate.Provider; the gate never calls it.
type stubProvider struct{}

func (stubProvider) SignInWithPassword(context.Context, string, string) (*authgate.Credentials, error) {
	return nil, nil
}

func (stubProvider) SignUp(context.Context, string, string) (*authgate.Credentials, error) {
	return nil, nil
}

func (stubProvider) RefreshToken(context.Context, string) (*authgate.Credentials, error) {
	return nil, nil
}

func (stubProvider) RevokeSession(context.Context, string) error { return nil }

func testConfig() authgate.Config {
	return authgate.Config{
		SignInPath:         "/login",
		TenantSetupPath:    "/dashboard?setup=business",
		DefaultLandingPath: "/dashboard",
	}
}

func TestDecide_LoadingNeverRedirects(t *testing.T) {
	d := Decide(testConfig(), Input{
		IsSessionLoading: true,
		CurrentPath:      "/settings/profile",
	})
	if d.Action != ActionWait {
		t.Errorf("action = %v, want wait", d.Action)
	}
	if d.Target != "" {
		t.Errorf("target = %q, want empty", d.Target)
	}
}

func TestDecide_UnauthenticatedRedirectsToSignIn(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/settings/profile", "/login?returnUrl=%2Fsettings%2Fprofile"},
		{"/dashboard", "/login?returnUrl=%2Fdashboard"},
	}
	for _, tt := range tests {
		d := Decide(testConfig(), Input{CurrentPath: tt.path})
		if d.Action != ActionRedirectSignIn {
			t.Errorf("Decide(%q) action = %v, want redirect_sign_in", tt.path, d.Action)
		}
		if d.Target != tt.want {
			t.Errorf("Decide(%q) target = %q, want %q", tt.path, d.Target, tt.want)
		}
	}
}

func TestDecide_MissingBusinessRedirectsToTenantSetup(t *testing.T) {
	d := Decide(testConfig(), Input{
		IsAuthenticated:        true,
		RequireBusinessContext: true,
		CurrentPath:            "/invoices",
	})
	if d.Action != ActionRedirectTenantSetup {
		t.Errorf("action = %v, want redirect_tenant_setup", d.Action)
	}
	if d.Target != "/dashboard?setup=business" {
		t.Errorf("target = %q, want /dashboard?setup=business", d.Target)
	}
}

func TestDecide_BusinessNotRequiredRenders(t *testing.T) {
	d := Decide(testConfig(), Input{
		IsAuthenticated: true,
		CurrentPath:     "/invoices",
	})
	if d.Action != ActionRender {
		t.Errorf("action = %v, want render", d.Action)
	}
}

func TestDecide_AuthenticatedWithBusinessRenders(t *testing.T) {
	d := Decide(testConfig(), Input{
		IsAuthenticated:        true,
		BusinessID:             "biz-1",
		RequireBusinessContext: true,
		CurrentPath:            "/invoices",
	})
	if d.Action != ActionRender {
		t.Errorf("action = %v, want render", d.Action)
	}
}

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	f := stubProvider{}
	client, err := authgate.NewClient(testConfig(), authgate.WithProvider(f))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return New(client)
}

func TestGate_DeduplicatesUnchangedInput(t *testing.T) {
	g := newTestGate(t)
	in := Input{CurrentPath: "/settings/profile"}

	d1, changed := g.Evaluate(in)
	if !changed {
		t.Fatal("first evaluation must report a change")
	}
	d2, changed := g.Evaluate(in)
	if changed {
		t.Error("repeated evaluation with unchanged input must be a no-op")
	}
	if d1 != d2 {
		t.Errorf("decisions differ: %+v vs %+v", d1, d2)
	}
}

func TestGate_ReevaluatesOnStateChange(t *testing.T) {
	g := newTestGate(t)

	d, _ := g.Evaluate(Input{CurrentPath: "/invoices"})
	if d.Action != ActionRedirectSignIn {
		t.Fatalf("action = %v, want redirect_sign_in", d.Action)
	}

	d, changed := g.Evaluate(Input{IsAuthenticated: true, CurrentPath: "/invoices"})
	if !changed {
		t.Error("changed input must re-evaluate")
	}
	if d.Action != ActionRender {
		t.Errorf("action = %v, want render after authentication", d.Action)
	}
}

func TestGate_ResetForgetsLastDecision(t *testing.T) {
	g := newTestGate(t)
	in := Input{CurrentPath: "/invoices"}

	g.Evaluate(in)
	g.Reset()
	if _, changed := g.Evaluate(in); !changed {
		t.Error("evaluation after Reset must report a change")
	}
}
