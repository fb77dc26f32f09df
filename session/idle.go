package session

import (
	"context"
	"time"

	authgate "github.com/facturo/authgate-go"
	"github.com/facturo/authgate-go/audit"
)

// InitializeIdleTimer sets the idle timeout and starts the timer if a
// session is live. A zero timeout disables idle expiry.
func (m *Manager) InitializeIdleTimer(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleTimeout = timeout
	m.stopIdleTimerLocked()
	m.startIdleTimerLocked()
}

// ResetIdleTimer restarts the idle countdown. Called on any observed user
// interaction; purely local bookkeeping, never a network call.
func (m *Manager) ResetIdleTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idleTimer != nil {
		m.idleTimer.Reset(m.idleTimeout)
	}
}

// StopIdleTimer cancels the idle countdown. Called on sign-out and on
// teardown so a dangling timer cannot fire against a torn-down session.
func (m *Manager) StopIdleTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopIdleTimerLocked()
}

func (m *Manager) startIdleTimerLocked() {
	if m.idleTimeout <= 0 || m.sess.Status != authgate.StatusAuthenticated {
		return
	}
	if m.idleTimer != nil {
		m.idleTimer.Reset(m.idleTimeout)
		return
	}
	m.idleTimer = time.AfterFunc(m.idleTimeout, m.onIdleExpire)
}

func (m *Manager) stopIdleTimerLocked() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

func (m *Manager) stopTimersLocked() {
	m.stopIdleTimerLocked()
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
}

// onIdleExpire fires when the idle timeout elapses with no activity.
func (m *Manager) onIdleExpire() {
	m.mu.Lock()
	if m.sess.Status != authgate.StatusAuthenticated {
		m.mu.Unlock()
		return
	}
	identityID := ""
	if m.sess.Identity != nil {
		identityID = m.sess.Identity.ID
	}
	notifies := m.expireLocked()
	m.mu.Unlock()
	for _, s := range notifies {
		m.notify(s)
	}
	m.met.RecordSessionExpiry("idle")
	m.emit(audit.Event{Action: audit.ActionSessionExpired, Result: audit.ResultSuccess, IdentityID: identityID, Details: "idle timeout"})
}

// scheduleRefreshLocked arms the proactive refresh timer to fire
// RefreshBuffer before token expiry.
func (m *Manager) scheduleRefreshLocked() {
	if !m.proactiveRefresh || m.sess.ExpiresAt.IsZero() {
		return
	}
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	d := m.sess.ExpiresAt.Sub(m.nowFn()) - m.client.Config().RefreshBuffer
	if d <= 0 {
		return
	}
	m.refreshTimer = time.AfterFunc(d, func() {
		// Errors surface through state transitions and metrics; there is
		// no caller to return them to.
		_, _ = m.RefreshSession(context.Background())
	})
}
