// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the agendeid command tree.
//
// Without a subcommand agendeid opens the full-screen chat when stdin and
// stdout are terminals, and the line-oriented REPL otherwise. Both front ends
// drive the same flow.Engine; they differ only in the Sink and the Loop.
//
// # Commands Overview
//
//	agendeid                     full-screen chat (or REPL without a TTY)
//	agendeid chat                line-oriented chat with history
//	agendeid check [--json]      server, session and storage checks
//	agendeid transcripts list    recorded conversations
//	agendeid transcripts show    print one conversation
//	agendeid transcripts export  write JSON or Markdown
//	agendeid config show|get|set configuration
//	agendeid devserver           local scripted backend
//	agendeid version             build information
//
// # Exit Codes
//
//	0  success
//	1  any error
//	2  server unreachable or timed out
package cli
