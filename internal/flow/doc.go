// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package flow implements the chat session state machine.
//
// An Engine owns one SessionState for the lifetime of a page. It detects
// registration and login intents in outgoing text, sends messages through a
// Transport, classifies replies, applies sentinel commands and field updates,
// and drives a Sink with everything the user should see.
//
// # Threading
//
// Every Engine method must be called from the goroutine that runs its
// schedule.Loop. Network calls run through a schedule.Runner and their results
// are posted back to the loop; timers fire on the loop too. Nothing in the
// Engine is locked.
//
// # Usage
//
//	eng, err := flow.New(flow.Options{
//	    Transport: client,
//	    Session:   client,
//	    Sink:      sink,
//	    Loop:      loop,
//	    Scheduler: schedule.NewTimerScheduler(loop),
//	    Profile:   flow.PublicProfile(),
//	})
//	eng.Start(ctx)
//	err = eng.Submit(ctx, "Cadastro")
package flow
