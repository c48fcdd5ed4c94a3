// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package schedule provides the single-owner event loop abstractions used by
// the chat engine.
//
// The engine's state is touched only from one loop. Blocking work runs through
// a Runner and posts its completion back with Loop.Post; timers created by a
// Scheduler also fire on the loop.
//
// # Implementations
//
//   - ChanLoop: channel-backed loop for line-oriented frontends
//   - TimerScheduler: time.AfterFunc timers whose callbacks are posted to a Loop
//   - GoRunner: runs blocking work on a new goroutine
//   - Manual: deterministic loop, clock, and inline runner for tests
package schedule
