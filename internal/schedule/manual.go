// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"sort"
	"time"
)

// Manual is a deterministic Loop, Scheduler, and Runner. Runner work executes
// inline; posted functions wait for Drain; timers fire only when the clock is
// advanced. It is not safe for concurrent use.
type Manual struct {
	now    time.Time
	queue  []func()
	timers []*manualTask
	seq    int
}

type manualTask struct {
	due     time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewManual creates a manual scheduler whose clock starts at a fixed instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the fake clock.
func (m *Manual) Now() time.Time { return m.now }

// Post queues fn until the next Drain.
func (m *Manual) Post(fn func()) { m.queue = append(m.queue, fn) }

// Go runs fn immediately.
func (m *Manual) Go(fn func()) { fn() }

// AfterFunc schedules fn at now+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Task {
	m.seq++
	t := &manualTask{due: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Drain runs queued functions, including ones queued while draining.
// It returns how many ran.
func (m *Manual) Drain() int {
	n := 0
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
		n++
	}
	return n
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing due timers in order and
// draining the queue after each one.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	m.Drain()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.due
		t.fired = true
		t.fn()
		m.Drain()
	}
	m.now = target
	m.compact()
}

func (m *Manual) nextDue(target time.Time) *manualTask {
	var due []*manualTask
	for _, t := range m.timers {
		if !t.stopped && !t.fired && !t.due.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].seq < due[j].seq
		}
		return due[i].due.Before(due[j].due)
	})
	return due[0]
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.timers = live
}
