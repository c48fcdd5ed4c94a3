// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMonitor(interval time.Duration) (*Monitor, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	m := NewMonitor(Config{Interval: interval})
	m.now = clock.Now
	m.startTime = clock.Now()
	m.lastActivity = clock.Now()
	return m, clock
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, 30*time.Second, DefaultConfig().Interval)
	assert.Equal(t, 30*time.Second, NewMonitor(Config{}).Interval())
}

func TestSetInterval(t *testing.T) {
	m, _ := newTestMonitor(30 * time.Second)
	m.SetInterval(0)
	assert.Equal(t, 30*time.Second, m.Interval())
	m.SetInterval(time.Minute)
	assert.Equal(t, time.Minute, m.Interval())
}

// =============================================================================
// TRIGGER TESTS
// =============================================================================

func TestDue_StartThenInterval(t *testing.T) {
	m, clock := newTestMonitor(30 * time.Second)

	reason, ok := m.Due()
	require.True(t, ok)
	assert.Equal(t, ReasonStart, reason)

	_, ok = m.Due()
	assert.False(t, ok, "check just ran")

	clock.Advance(29 * time.Second)
	_, ok = m.Due()
	assert.False(t, ok)

	clock.Advance(time.Second)
	reason, ok = m.Due()
	require.True(t, ok)
	assert.Equal(t, ReasonInterval, reason)
	assert.Equal(t, 2, m.GetStatus().Checks)
}

func TestRecordActivity_Wake(t *testing.T) {
	m, clock := newTestMonitor(30 * time.Second)

	assert.False(t, m.RecordActivity(), "no wake before the first check")
	_, ok := m.Due()
	require.True(t, ok)

	clock.Advance(10 * time.Second)
	assert.False(t, m.RecordActivity(), "short idle")

	clock.Advance(45 * time.Second)
	assert.True(t, m.RecordActivity(), "idle for longer than the interval")
	assert.Equal(t, 2, m.GetStatus().Checks)

	clock.Advance(time.Second)
	assert.False(t, m.RecordActivity())
	_, ok = m.Due()
	assert.False(t, ok, "wake check resets the interval")
}

func TestRecordActivity_NoWakeWhenPeriodicCheckRan(t *testing.T) {
	m, clock := newTestMonitor(30 * time.Second)
	m.Due()

	clock.Advance(40 * time.Second)
	_, ok := m.Due()
	require.True(t, ok)

	clock.Advance(5 * time.Second)
	assert.False(t, m.RecordActivity(), "a periodic check ran during the idle period")
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "start", ReasonStart.String())
	assert.Equal(t, "interval", ReasonInterval.String())
	assert.Equal(t, "wake", ReasonWake.String())
	assert.Equal(t, "unknown", Reason(9).String())
}

// =============================================================================
// BUBBLE TEA TESTS
// =============================================================================

func TestHandleTick(t *testing.T) {
	m, _ := newTestMonitor(30 * time.Second)
	assert.NotNil(t, m.HandleTick())
	assert.NotNil(t, m.HandleTick())
	assert.Equal(t, 1, m.GetStatus().Checks)
}

func TestCheckCmd(t *testing.T) {
	msg := CheckCmd(ReasonWake)()
	assert.Equal(t, CheckMsg{Reason: ReasonWake}, msg)
}

// =============================================================================
// RUN TESTS
// =============================================================================

func TestRun_StartCheckAndCancel(t *testing.T) {
	m := NewMonitor(Config{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	reasons := make(chan Reason, 4)
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, func(r Reason) { reasons <- r })
	}()

	select {
	case r := <-reasons:
		assert.Equal(t, ReasonStart, r)
	case <-time.After(2 * time.Second):
		t.Fatal("start check did not run")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Len(t, reasons, 0)
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestGetStatus(t *testing.T) {
	m, clock := newTestMonitor(30 * time.Second)
	assert.Equal(t, time.Duration(0), m.GetStatus().NextCheck)

	m.Due()
	clock.Advance(12 * time.Second)
	st := m.GetStatus()
	assert.Equal(t, 18*time.Second, st.NextCheck)
	assert.Equal(t, 12*time.Second, st.IdleTime)
	assert.Equal(t, 1, st.Checks)

	clock.Advance(time.Minute)
	assert.Equal(t, time.Duration(0), m.GetStatus().NextCheck)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{2 * time.Minute, "2m"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatDuration(tc.d))
	}
}
