// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/suggest"
)

// =============================================================================
// SCREEN (flow.Sink)
// =============================================================================

// Entry is one bubble in the transcript.
type Entry struct {
	Message    *model.Message
	Style      flow.Style
	Attachment *flow.Attachment
}

// Screen records what the engine wants displayed. It is only touched from
// the Bubble Tea event loop.
type Screen struct {
	window *model.DisplayWindow
	extras map[*model.Message]*Entry

	checklistTitle string
	checklist      []flow.ChecklistItem
	suggestions    []suggest.Suggestion
	connectivity   flow.Connectivity
	busy           bool
	route          string

	// dirty is set by every mutation and cleared by the model after it
	// re-renders the viewport.
	dirty bool
}

var _ flow.Sink = (*Screen)(nil)

// NewScreen creates a screen keeping at most limit bubbles.
func NewScreen(limit int) *Screen {
	return &Screen{
		window: model.NewDisplayWindow(limit),
		extras: make(map[*model.Message]*Entry),
	}
}

// AppendMessage adds a bubble. markup is already safe.
func (s *Screen) AppendMessage(role model.Role, markup string, style flow.Style) {
	msg := model.NewMessage(role, markup)
	s.extras[msg] = &Entry{Message: msg, Style: style}
	for _, gone := range s.window.Push(msg) {
		delete(s.extras, gone)
	}
	s.dirty = true
}

// ShowChecklist replaces the sidebar checklist. An empty list hides it.
func (s *Screen) ShowChecklist(title string, items []flow.ChecklistItem) {
	s.checklistTitle = title
	s.checklist = append(s.checklist[:0:0], items...)
	s.dirty = true
}

// ShowSuggestions replaces the suggestion bar.
func (s *Screen) ShowSuggestions(suggestions []suggest.Suggestion) {
	s.suggestions = append(s.suggestions[:0:0], suggestions...)
	s.dirty = true
}

// ShowAttachment attaches a to the most recent bubble.
func (s *Screen) ShowAttachment(a flow.Attachment) {
	last := s.window.Entries()
	if len(last) == 0 {
		return
	}
	entry := s.extras[last[len(last)-1]]
	if entry == nil {
		return
	}
	att := a
	entry.Attachment = &att
	s.dirty = true
}

// SetConnectivity updates the status indicator.
func (s *Screen) SetConnectivity(c flow.Connectivity) {
	s.connectivity = c
	s.dirty = true
}

// SetBusy toggles the processing indicator.
func (s *Screen) SetBusy(busy bool) {
	s.busy = busy
	s.dirty = true
}

// Navigate records the page the chat is leaving for.
func (s *Screen) Navigate(route string) {
	s.route = route
	s.dirty = true
}

// Clear empties the transcript, checklist and suggestions.
func (s *Screen) Clear() {
	s.window.Reset()
	s.extras = make(map[*model.Message]*Entry)
	s.checklistTitle = ""
	s.checklist = nil
	s.suggestions = nil
	s.dirty = true
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Entries returns the visible bubbles, oldest first.
func (s *Screen) Entries() []Entry {
	msgs := s.window.Entries()
	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		if e := s.extras[m]; e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// Checklist returns the sidebar title and items.
func (s *Screen) Checklist() (string, []flow.ChecklistItem) {
	return s.checklistTitle, s.checklist
}

// Suggestions returns the suggestion bar contents.
func (s *Screen) Suggestions() []suggest.Suggestion { return s.suggestions }

// Connectivity returns the last connectivity state.
func (s *Screen) Connectivity() flow.Connectivity { return s.connectivity }

// Busy reports whether a request is in flight.
func (s *Screen) Busy() bool { return s.busy }

// Route returns the navigation target, or "" while the chat stays on its page.
func (s *Screen) Route() string { return s.route }

// LastOptions returns the options attached to the newest bubble, if any.
func (s *Screen) LastOptions() *flow.Attachment {
	msgs := s.window.Entries()
	if len(msgs) == 0 {
		return nil
	}
	e := s.extras[msgs[len(msgs)-1]]
	if e == nil || e.Attachment == nil || len(e.Attachment.Options) == 0 {
		return nil
	}
	return e.Attachment
}

func (s *Screen) takeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}

// =============================================================================
// PROGRAM LOOP (schedule.Loop)
// =============================================================================

// postedMsg carries an engine callback into Update.
type postedMsg struct {
	fn func()
}

// ProgramLoop implements schedule.Loop on top of a tea.Program. Callbacks
// posted before Attach are held and delivered once the program is known.
type ProgramLoop struct {
	mu      sync.Mutex
	program *tea.Program
	pending []func()
}

// NewProgramLoop creates an unattached loop.
func NewProgramLoop() *ProgramLoop {
	return &ProgramLoop{}
}

// Attach binds the loop to p and flushes held callbacks.
func (l *ProgramLoop) Attach(p *tea.Program) {
	l.mu.Lock()
	l.program = p
	held := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(held) == 0 {
		return
	}
	go func() {
		for _, fn := range held {
			p.Send(postedMsg{fn: fn})
		}
	}()
}

// Post delivers fn to the event loop. It must not be called from inside
// Update: Program.Send blocks until the loop receives the message.
func (l *ProgramLoop) Post(fn func()) {
	l.mu.Lock()
	p := l.program
	if p == nil {
		l.pending = append(l.pending, fn)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	p.Send(postedMsg{fn: fn})
}
