// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SESSION MONITOR
// =============================================================================

// Reason says why a check was triggered.
type Reason int

const (
	// ReasonStart is the first check after launch.
	ReasonStart Reason = iota
	// ReasonInterval is a periodic check.
	ReasonInterval
	// ReasonWake is a check after the user returns from being idle.
	ReasonWake
)

// String returns the log name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonStart:
		return "start"
	case ReasonInterval:
		return "interval"
	case ReasonWake:
		return "wake"
	default:
		return "unknown"
	}
}

// Monitor schedules session verification and connectivity pings.
type Monitor struct {
	mu sync.Mutex

	interval     time.Duration
	startTime    time.Time
	lastCheck    time.Time
	lastActivity time.Time
	checks       int

	now func() time.Time
}

// Config holds configuration for the monitor.
type Config struct {
	// Interval between periodic checks (default: 30 seconds)
	Interval time.Duration
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{Interval: 30 * time.Second}
}

// NewMonitor creates a monitor. No check has run yet, so the first tick
// triggers one.
func NewMonitor(cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	m := &Monitor{interval: cfg.Interval, now: time.Now}
	m.startTime = m.now()
	m.lastActivity = m.startTime
	return m
}

// Interval returns the periodic check interval.
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// SetInterval updates the interval; it takes effect on the next tick.
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = d
}

// =============================================================================
// TRIGGERS
// =============================================================================

// Due reports whether a check should run now, and why. A due check is
// marked as started, so callers must run it.
func (m *Monitor) Due() (Reason, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.checks == 0 {
		m.markLocked(now)
		return ReasonStart, true
	}
	if now.Sub(m.lastCheck) >= m.interval {
		m.markLocked(now)
		return ReasonInterval, true
	}
	return 0, false
}

// RecordActivity notes user input. It returns true when the user comes
// back after at least one interval of inactivity and no check ran during
// that time; the check is then marked as started.
func (m *Monitor) RecordActivity() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	idle := now.Sub(m.lastActivity)
	m.lastActivity = now

	if m.checks == 0 || idle < m.interval || now.Sub(m.lastCheck) < m.interval {
		return false
	}
	m.markLocked(now)
	return true
}

func (m *Monitor) markLocked(now time.Time) {
	m.lastCheck = now
	m.checks++
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// TickMsg is sent every second while the TUI runs.
type TickMsg struct {
	Time time.Time
}

// CheckMsg asks the model to verify the session and ping the server.
type CheckMsg struct {
	Reason Reason
}

// TickCmd returns a command that ticks once a second.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// HandleTick emits a CheckMsg when a check is due and keeps ticking.
func (m *Monitor) HandleTick() tea.Cmd {
	if reason, ok := m.Due(); ok {
		return tea.Batch(CheckCmd(reason), TickCmd())
	}
	return TickCmd()
}

// CheckCmd wraps reason in a CheckMsg command.
func CheckCmd(reason Reason) tea.Cmd {
	return func() tea.Msg {
		return CheckMsg{Reason: reason}
	}
}

// =============================================================================
// BLOCKING LOOP
// =============================================================================

// Run calls fn at start and then every interval until ctx is done.
// Wake checks are driven by RecordActivity, which callers invoke on input.
func (m *Monitor) Run(ctx context.Context, fn func(Reason)) error {
	if reason, ok := m.Due(); ok {
		fn(reason)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if reason, ok := m.Due(); ok {
				fn(reason)
			}
		}
	}
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a snapshot of the monitor.
type Status struct {
	StartTime time.Time
	LastCheck time.Time
	Checks    int
	IdleTime  time.Duration
	NextCheck time.Duration
}

// GetStatus returns the current monitor status.
func (m *Monitor) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	next := time.Duration(0)
	if m.checks > 0 {
		next = m.interval - now.Sub(m.lastCheck)
		if next < 0 {
			next = 0
		}
	}
	return Status{
		StartTime: m.startTime,
		LastCheck: m.lastCheck,
		Checks:    m.checks,
		IdleTime:  now.Sub(m.lastActivity),
		NextCheck: next,
	}
}

// FormatDuration returns a short human-readable duration.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return strconv.Itoa(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return strconv.Itoa(mins) + "m"
	}
	return strconv.Itoa(mins) + "m " + strconv.Itoa(secs) + "s"
}
