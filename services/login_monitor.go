package services

import (
	"log"
	"strings"
	"sync"
	"time"
)

const (
	loginFailureWindow    = 10 * time.Minute
	loginFailureThreshold = 5
	loginAlertCooldown    = time.Hour
	maxLoginAlerts        = 100
)

// LoginAlert records a burst of failed logins from one address
type LoginAlert struct {
	At       time.Time
	IP       string
	Email    string
	Failures int
}

// LoginMonitor watches failed logins per client address and raises an alert
// when an address keeps failing. Alerts repeat at most once an hour per address.
type LoginMonitor struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	alerted  map[string]time.Time
	alerts   []LoginAlert
	now      func() time.Time
}

func NewLoginMonitor() *LoginMonitor {
	return &LoginMonitor{
		failures: make(map[string][]time.Time),
		alerted:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// RecordFailure notes a failed attempt and reports whether it raised an alert
func (m *LoginMonitor) RecordFailure(ip, email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.prune(now)

	attempts := append(m.failures[ip], now)
	m.failures[ip] = attempts
	if len(attempts) < loginFailureThreshold {
		return false
	}
	if last, ok := m.alerted[ip]; ok && now.Sub(last) < loginAlertCooldown {
		return false
	}

	m.alerted[ip] = now
	alert := LoginAlert{At: now, IP: ip, Email: strings.ToLower(email), Failures: len(attempts)}
	m.alerts = append([]LoginAlert{alert}, m.alerts...)
	if len(m.alerts) > maxLoginAlerts {
		m.alerts = m.alerts[:maxLoginAlerts]
	}
	log.Printf("[SECURITY] %d failed logins in %s from %s (last email %q)", len(attempts), loginFailureWindow, ip, alert.Email)
	return true
}

// RecordSuccess clears the failure history of an address
func (m *LoginMonitor) RecordSuccess(ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, ip)
}

// Alerts returns recent alerts, newest first
func (m *LoginMonitor) Alerts() []LoginAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LoginAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// prune drops attempts outside the window and expired cooldowns. Caller holds mu.
func (m *LoginMonitor) prune(now time.Time) {
	windowStart := now.Add(-loginFailureWindow)
	for ip, attempts := range m.failures {
		kept := attempts[:0]
		for _, at := range attempts {
			if at.After(windowStart) {
				kept = append(kept, at)
			}
		}
		if len(kept) == 0 {
			delete(m.failures, ip)
			continue
		}
		m.failures[ip] = kept
	}
	for ip, at := range m.alerted {
		if now.Sub(at) >= loginAlertCooldown {
			delete(m.alerted, ip)
		}
	}
}
