// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
//
// This package defines the core domain types shared by the flow engine, the
// presentation sinks, and transcript storage.
//
// # Key Types
//
//   - Message: Single transcript entry with role, text, timestamp, and optional reply metadata
//   - History: Append-only, ordered record of a page's conversation
//   - DisplayWindow: Bounded view of rendered entries (oldest evicted first)
//   - Role: Transcript role enumeration (user, bot, system)
//   - UserType: Account role reported by the server (none, client, staff)
//
// # Usage
//
//	h := model.NewHistory()
//	h.Append(model.NewUserMessage("Cadastro"))
//	last := h.LastOfRole(model.RoleBot)
//
// History is the data of record; DisplayWindow only bounds what is painted.
package model
