// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Loop runs posted functions one at a time on its owning goroutine.
type Loop interface {
	Post(fn func())
}

// Task is a scheduled callback that can be cancelled.
type Task interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped it; false means it already ran or was already stopped.
	Stop() bool
}

// Scheduler creates timers.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

// Runner executes blocking work off the loop.
type Runner interface {
	Go(fn func())
}

// =============================================================================
// CHANNEL LOOP
// =============================================================================

// ChanLoop is a Loop backed by a buffered channel. Run drains it.
type ChanLoop struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

// NewChanLoop creates a loop with the given queue capacity.
func NewChanLoop(capacity int) *ChanLoop {
	if capacity <= 0 {
		capacity = 64
	}
	return &ChanLoop{
		ch:   make(chan func(), capacity),
		done: make(chan struct{}),
	}
}

// Post enqueues fn. Posting after Close is a no-op.
func (l *ChanLoop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.ch <- fn:
	case <-l.done:
	}
}

// Run executes posted functions until ctx is cancelled or Close is called.
func (l *ChanLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.ch:
			fn()
		}
	}
}

// Close stops Run and discards later posts.
func (l *ChanLoop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Call posts fn and waits for it to run.
func (l *ChanLoop) Call(fn func()) {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-l.done:
	}
}

// =============================================================================
// TIMERS AND RUNNERS
// =============================================================================

// TimerScheduler fires timers on the wall clock and posts callbacks to Loop.
type TimerScheduler struct {
	Loop Loop
}

// NewTimerScheduler creates a scheduler that posts to loop.
func NewTimerScheduler(loop Loop) *TimerScheduler {
	return &TimerScheduler{Loop: loop}
}

type timerTask struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *timerTask) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	return t.timer.Stop()
}

// AfterFunc schedules fn to run on the loop after d.
func (s *TimerScheduler) AfterFunc(d time.Duration, fn func()) Task {
	t := &timerTask{}
	t.timer = time.AfterFunc(d, func() {
		s.Loop.Post(func() {
			if t.stopped.Load() {
				return
			}
			fn()
		})
	})
	return t
}

// GoRunner runs each function on a new goroutine.
type GoRunner struct{}

// Go starts fn.
func (GoRunner) Go(fn func()) {
	go fn()
}

// =============================================================================
// COUNTDOWN
// =============================================================================

type countdown struct {
	mu      sync.Mutex
	current Task
	stopped bool
	fired   bool
}

func (c *countdown) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.fired {
		return false
	}
	c.stopped = true
	if c.current != nil {
		c.current.Stop()
	}
	return true
}

// Countdown calls tick(seconds) immediately, then tick(seconds-1) down to
// tick(1) once per second, and finally done exactly once, seconds after the
// call. A non-positive seconds calls done immediately.
func Countdown(s Scheduler, seconds int, tick func(remaining int), done func()) Task {
	c := &countdown{}
	if seconds <= 0 {
		c.fired = true
		done()
		return c
	}

	tick(seconds)

	var step func(remaining int)
	step = func(remaining int) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.stopped {
			return
		}
		c.current = s.AfterFunc(time.Second, func() {
			c.mu.Lock()
			if c.stopped {
				c.mu.Unlock()
				return
			}
			next := remaining - 1
			if next <= 0 {
				c.fired = true
				c.mu.Unlock()
				done()
				return
			}
			c.mu.Unlock()
			tick(next)
			step(next)
		})
	}
	step(seconds)

	return c
}
