// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps chat transcripts in a local SQLite database.
//
// Each launch of the chat opens a Run. Every entry the engine appends to
// its in-memory history is recorded against that run, so a transcript
// survives the display window evicting old bubbles.
//
// # Key Types
//
//   - Store: the database handle
//   - Run: one chat launch, implements flow.Recorder
//   - RunMeta: lightweight listing row
//   - Transcript: a run with all its entries
//
// # Usage
//
//	store, err := storage.Open(path)
//	run, err := store.StartRun("/painel_cliente")
//	engine := flow.New(flow.Options{Recorder: run, ...})
//
// Listing and export:
//
//	metas, err := store.ListRuns(20)
//	tr, err := store.LoadRun(metas[0].ID)
//	err = storage.ExportMarkdown(tr, "conversa.md")
//
// # Storage Location
//
// The database lives at ~/.agendeid/transcripts.db unless storage.path
// says otherwise.
package storage
