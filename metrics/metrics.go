// Package metrics provides Prometheus metrics for session and tenant operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for auth-gate operations.
type Metrics struct {
	enabled bool

	// Authentication metrics
	signInsTotal      prometheus.Counter
	signInFailures    *prometheus.CounterVec
	signOutsTotal     prometheus.Counter
	sessionExpiries   *prometheus.CounterVec

	// Refresh metrics
	refreshTotal     *prometheus.CounterVec
	refreshCoalesced prometheus.Counter

	// Tenant resolution metrics
	tenantResolutions       *prometheus.CounterVec
	tenantResolutionSeconds prometheus.Histogram

	// Route gate metrics
	gateDecisions *prometheus.CounterVec
}

// New creates and registers metrics on the default Prometheus registry.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	return NewWithRegistry(enabled, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics registered on the given registerer.
func NewWithRegistry(enabled bool, reg prometheus.Registerer) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	factory := promauto.With(reg)

	m.signInsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "authgate_sign_ins_total",
		Help: "Total successful sign-ins",
	})

	m.signInFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_sign_in_failures_total",
		Help: "Total failed sign-in attempts",
	}, []string{"reason"})

	m.signOutsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "authgate_sign_outs_total",
		Help: "Total sign-outs",
	})

	m.sessionExpiries = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_session_expiries_total",
		Help: "Total session expiries",
	}, []string{"cause"})

	m.refreshTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_refreshes_total",
		Help: "Total token refresh attempts",
	}, []string{"result"})

	m.refreshCoalesced = factory.NewCounter(prometheus.CounterOpts{
		Name: "authgate_refreshes_coalesced_total",
		Help: "Refresh calls that joined an in-flight refresh instead of issuing a provider call",
	})

	m.tenantResolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_tenant_resolutions_total",
		Help: "Total business-id resolutions",
	}, []string{"source", "result"})

	m.tenantResolutionSeconds = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "authgate_tenant_resolution_duration_seconds",
		Help:    "Remote business-id resolution duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	m.gateDecisions = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_gate_decisions_total",
		Help: "Route gate decisions",
	}, []string{"action"})

	return m
}

// RecordSignIn records a successful sign-in.
func (m *Metrics) RecordSignIn() {
	if !m.enabled {
		return
	}
	m.signInsTotal.Inc()
}

// RecordSignInFailure records a failed sign-in attempt.
func (m *Metrics) RecordSignInFailure(reason string) {
	if !m.enabled {
		return
	}
	m.signInFailures.WithLabelValues(reason).Inc()
}

// RecordSignOut records a sign-out.
func (m *Metrics) RecordSignOut() {
	if !m.enabled {
		return
	}
	m.signOutsTotal.Inc()
}

// RecordSessionExpiry records a session expiry with its cause
// ("idle" or "refresh_rejected").
func (m *Metrics) RecordSessionExpiry(cause string) {
	if !m.enabled {
		return
	}
	m.sessionExpiries.WithLabelValues(cause).Inc()
}

// RecordRefresh records a refresh attempt result ("success" or "failure").
func (m *Metrics) RecordRefresh(result string) {
	if !m.enabled {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}

// RecordRefreshCoalesced records a refresh call that shared an in-flight result.
func (m *Metrics) RecordRefreshCoalesced() {
	if !m.enabled {
		return
	}
	m.refreshCoalesced.Inc()
}

// RecordTenantResolution records a business-id resolution.
func (m *Metrics) RecordTenantResolution(source, result string, durationSeconds float64) {
	if !m.enabled {
		return
	}
	m.tenantResolutions.WithLabelValues(source, result).Inc()
	if source == "remote" {
		m.tenantResolutionSeconds.Observe(durationSeconds)
	}
}

// RecordGateDecision records a route gate decision action
// ("render", "wait", "redirect_sign_in", "redirect_tenant_setup").
func (m *Metrics) RecordGateDecision(action string) {
	if !m.enabled {
		return
	}
	m.gateDecisions.WithLabelValues(action).Inc()
}
