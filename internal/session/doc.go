// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session decides when the chat re-verifies its login session and
// pings the server status endpoint.
//
// Checks run once at start, then every interval, and again when the user
// returns after having been idle for a full interval.
//
// # Key Types
//
//   - Monitor: check scheduler
//   - TickMsg: Bubble Tea heartbeat
//   - CheckMsg: Bubble Tea message asking for a check
//
// # Usage
//
// In a Bubble Tea model:
//
//	case session.TickMsg:
//	    return m, m.monitor.HandleTick()
//	case session.CheckMsg:
//	    m.engine.VerifySession(ctx)
//	    m.engine.CheckConnection(ctx)
//
// In a line-oriented loop:
//
//	go monitor.Run(ctx, func(session.Reason) { post(check) })
package session
