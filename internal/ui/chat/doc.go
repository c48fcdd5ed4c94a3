// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea front end of the AgendeID chat.
//
// The package has two halves. Screen implements flow.Sink and holds what the
// engine asked to show: the transcript window, checklist, suggestions,
// attachments and status. Model is the tea.Model that owns the input line,
// draws the Screen, and forwards keys to the engine.
//
// The engine is single-owner. ProgramLoop posts its callbacks into the Bubble
// Tea event loop as messages, so every engine and Screen call happens inside
// Update.
//
// # Usage
//
//	screen := chat.NewScreen(cfg.Chat.DisplayLimit)
//	loop := chat.NewProgramLoop()
//	engine, _ := flow.New(flow.Options{Sink: screen, Loop: loop, ...})
//	m := chat.New(engine, screen, chat.Options{Theme: theme})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	loop.Attach(p)
//	final, err := p.Run()
//
// # Key Bindings
//
//   - Enter: send the message
//   - Alt+1..9: send a suggestion
//   - PgUp/PgDn: scroll the transcript
//   - Ctrl+L: clear the chat
//   - Ctrl+B: toggle the checklist sidebar
//   - F1: help
//   - Esc/Ctrl+C: quit
package chat
