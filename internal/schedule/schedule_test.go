// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MANUAL TESTS
// =============================================================================

func TestManual_TimersFireInOrder(t *testing.T) {
	m := NewManual()
	var got []string

	m.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	m.AfterFunc(time.Second, func() { got = append(got, "a") })
	m.AfterFunc(2*time.Second, func() { got = append(got, "c") })

	m.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 2, m.Pending())

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_StopPreventsFire(t *testing.T) {
	m := NewManual()
	fired := false

	task := m.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, task.Stop())
	assert.False(t, task.Stop())

	m.Advance(5 * time.Second)
	assert.False(t, fired)
}

func TestManual_PostWaitsForDrain(t *testing.T) {
	m := NewManual()
	ran := 0

	m.Go(func() {
		m.Post(func() { ran++ })
	})
	assert.Equal(t, 0, ran)

	assert.Equal(t, 1, m.Drain())
	assert.Equal(t, 1, ran)
}

func TestManual_TimerScheduledDuringAdvance(t *testing.T) {
	m := NewManual()
	var at []time.Duration
	start := m.Now()

	m.AfterFunc(time.Second, func() {
		at = append(at, m.Now().Sub(start))
		m.AfterFunc(time.Second, func() {
			at = append(at, m.Now().Sub(start))
		})
	})

	m.Advance(3 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, at)
	assert.Equal(t, 3*time.Second, m.Now().Sub(start))
}

// =============================================================================
// COUNTDOWN TESTS
// =============================================================================

func TestCountdown_TicksThenFiresOnce(t *testing.T) {
	m := NewManual()
	var ticks []int
	done := 0

	Countdown(m, 2, func(n int) { ticks = append(ticks, n) }, func() { done++ })
	assert.Equal(t, []int{2}, ticks)
	assert.Equal(t, 0, done)

	m.Advance(time.Second)
	assert.Equal(t, []int{2, 1}, ticks)
	assert.Equal(t, 0, done)

	m.Advance(time.Second)
	assert.Equal(t, 1, done)

	m.Advance(10 * time.Second)
	assert.Equal(t, 1, done)
	assert.Equal(t, []int{2, 1}, ticks)
}

func TestCountdown_ThreeSeconds(t *testing.T) {
	m := NewManual()
	var ticks []int
	done := 0

	Countdown(m, 3, func(n int) { ticks = append(ticks, n) }, func() { done++ })
	m.Advance(2999 * time.Millisecond)
	assert.Equal(t, 0, done)

	m.Advance(time.Millisecond)
	assert.Equal(t, []int{3, 2, 1}, ticks)
	assert.Equal(t, 1, done)
}

func TestCountdown_Stop(t *testing.T) {
	m := NewManual()
	done := 0

	task := Countdown(m, 2, func(int) {}, func() { done++ })
	m.Advance(time.Second)
	require.True(t, task.Stop())

	m.Advance(5 * time.Second)
	assert.Equal(t, 0, done)
	assert.False(t, task.Stop())
}

func TestCountdown_NonPositive(t *testing.T) {
	m := NewManual()
	done := 0
	task := Countdown(m, 0, func(int) { t.Fatal("unexpected tick") }, func() { done++ })
	assert.Equal(t, 1, done)
	assert.False(t, task.Stop())
}

// =============================================================================
// REAL LOOP TESTS
// =============================================================================

func TestTimerScheduler_PostsToLoop(t *testing.T) {
	loop := NewChanLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	fired := make(chan struct{})
	NewTimerScheduler(loop).AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerScheduler_Stop(t *testing.T) {
	loop := NewChanLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	fired := make(chan struct{}, 1)
	task := NewTimerScheduler(loop).AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
	assert.True(t, task.Stop())

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChanLoop_CallAndClose(t *testing.T) {
	loop := NewChanLoop(1)
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(context.Background()) }()

	value := 0
	loop.Call(func() { value = 42 })
	assert.Equal(t, 42, value)

	loop.Close()
	require.NoError(t, <-errc)

	loop.Post(func() { value = 0 })
	assert.Equal(t, 42, value)
}
