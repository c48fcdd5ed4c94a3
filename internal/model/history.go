// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
package model

// DefaultDisplayLimit is the number of rendered entries kept on screen.
const DefaultDisplayLimit = 100

// =============================================================================
// HISTORY
// =============================================================================

// History is the append-only record of a page's conversation. It is used for
// diagnostics and recency checks; the presentation sink is the render of record.
//
// History is not safe for concurrent use. It is owned by the flow engine's loop.
type History struct {
	messages []*Message
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{messages: make([]*Message, 0, 32)}
}

// Append adds a message to the end of the history.
func (h *History) Append(msg *Message) {
	if msg == nil {
		return
	}
	h.messages = append(h.messages, msg)
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.messages)
}

// Last returns the most recent entry, or nil if empty.
func (h *History) Last() *Message {
	if len(h.messages) == 0 {
		return nil
	}
	return h.messages[len(h.messages)-1]
}

// LastOfRole returns the most recent entry with the given role.
func (h *History) LastOfRole(role Role) *Message {
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == role {
			return h.messages[i]
		}
	}
	return nil
}

// CountRole returns the number of entries with the given role.
func (h *History) CountRole(role Role) int {
	n := 0
	for _, msg := range h.messages {
		if msg.Role == role {
			n++
		}
	}
	return n
}

// Messages returns a copy of the entries in order.
func (h *History) Messages() []*Message {
	out := make([]*Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Clear drops every entry. Only the explicit "clear chat" action uses it.
func (h *History) Clear() {
	h.messages = make([]*Message, 0, 32)
}

// =============================================================================
// DISPLAY WINDOW
// =============================================================================

// DisplayWindow bounds the rendered transcript. Pushing beyond the limit
// evicts the oldest entry. It never touches History.
type DisplayWindow struct {
	limit   int
	entries []*Message
}

// NewDisplayWindow creates a window holding at most limit entries.
// A non-positive limit falls back to DefaultDisplayLimit.
func NewDisplayWindow(limit int) *DisplayWindow {
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	return &DisplayWindow{limit: limit, entries: make([]*Message, 0, limit)}
}

// Push appends an entry and returns the evicted entries, oldest first.
func (w *DisplayWindow) Push(msg *Message) []*Message {
	w.entries = append(w.entries, msg)
	if len(w.entries) <= w.limit {
		return nil
	}
	over := len(w.entries) - w.limit
	evicted := make([]*Message, over)
	copy(evicted, w.entries[:over])
	w.entries = append(w.entries[:0:0], w.entries[over:]...)
	return evicted
}

// Entries returns the rendered entries, oldest first.
func (w *DisplayWindow) Entries() []*Message {
	out := make([]*Message, len(w.entries))
	copy(out, w.entries)
	return out
}

// Len returns the number of rendered entries.
func (w *DisplayWindow) Len() int {
	return len(w.entries)
}

// Limit returns the maximum number of rendered entries.
func (w *DisplayWindow) Limit() int {
	return w.limit
}

// First returns the oldest rendered entry, or nil.
func (w *DisplayWindow) First() *Message {
	if len(w.entries) == 0 {
		return nil
	}
	return w.entries[0]
}

// Reset removes every rendered entry.
func (w *DisplayWindow) Reset() {
	w.entries = w.entries[:0]
}
