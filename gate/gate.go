// Package gate decides, per navigation attempt, whether to render protected
// content, wait for session hydration, or redirect to sign-in or
// tenant-setup.
//
// Decide is a pure function over the session and tenant state; Gate wraps
// it with deduplication so re-evaluating on every state change never emits
// the same redirect twice for an unchanged state.
package gate

import (
	"sync"

	authgate "github.com/facturo/authgate-go"
	"github.com/facturo/authgate-go/metrics"
)

// Action is the gate's verdict for a navigation attempt.
type Action int

const (
	// ActionWait renders a neutral loading state while the session is
	// still hydrating. Never a redirect.
	ActionWait Action = iota

	// ActionRender renders the requested content unchanged.
	ActionRender

	// ActionRedirectSignIn sends the user to the sign-in path with the
	// original path as a return URL.
	ActionRedirectSignIn

	// ActionRedirectTenantSetup sends an authenticated user without a
	// business to the tenant-setup path.
	ActionRedirectTenantSetup
)

// String returns the metric label for the action.
func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionRender:
		return "render"
	case ActionRedirectSignIn:
		return "redirect_sign_in"
	case ActionRedirectTenantSetup:
		return "redirect_tenant_setup"
	default:
		return "unknown"
	}
}

// Input is the state a navigation decision depends on.
type Input struct {
	IsAuthenticated        bool
	IsSessionLoading       bool
	BusinessID             string
	RequireBusinessContext bool
	CurrentPath            string
}

// Decision is the gate's output. Target is set for redirect actions.
type Decision struct {
	Action Action
	Target string
}

// Decide evaluates a navigation attempt. Pure: same input, same decision.
//
//  1. Session loading: wait, never redirect.
//  2. Not authenticated: redirect to sign-in carrying the original path.
//  3. Authenticated, business required but unresolved: redirect to
//     tenant-setup, not sign-in.
//  4. Otherwise render.
func Decide(cfg authgate.Config, in Input) Decision {
	if in.IsSessionLoading {
		return Decision{Action: ActionWait}
	}
	if !in.IsAuthenticated {
		return Decision{
			Action: ActionRedirectSignIn,
			Target: BuildSignInRedirect(cfg.SignInPath, in.CurrentPath, cfg.DefaultLandingPath),
		}
	}
	if in.RequireBusinessContext && in.BusinessID == "" {
		return Decision{
			Action: ActionRedirectTenantSetup,
			Target: cfg.TenantSetupPath,
		}
	}
	return Decision{Action: ActionRender}
}

// Gate wraps Decide with per-state deduplication and metrics. Safe for
// concurrent use.
type Gate struct {
	cfg authgate.Config
	met *metrics.Metrics

	mu   sync.Mutex
	last *evaluation
}

type evaluation struct {
	in Input
	d  Decision
}

// Option configures the Gate.
type Option func(*Gate)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(met *metrics.Metrics) Option {
	return func(g *Gate) { g.met = met }
}

// New creates a Gate using the client's configured paths.
func New(client *authgate.Client, opts ...Option) *Gate {
	g := &Gate{cfg: client.Config()}
	for _, o := range opts {
		o(g)
	}
	if g.met == nil {
		g.met = metrics.New(false)
	}
	return g
}

// Evaluate decides for the given input. The second return value is false
// when the input is unchanged since the previous call: the decision is the
// same and the caller must treat the evaluation as a no-op rather than
// redirect again.
func (g *Gate) Evaluate(in Input) (Decision, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last != nil && g.last.in == in {
		return g.last.d, false
	}

	d := Decide(g.cfg, in)
	g.last = &evaluation{in: in, d: d}
	g.met.RecordGateDecision(d.Action.String())
	return d, true
}

// Reset clears the dedup state, e.g. when the guarded subtree unmounts.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = nil
}
