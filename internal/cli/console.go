// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/format"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
	"github.com/jeranaias/agendeid-chat/internal/suggest"
)

// =============================================================================
// CONSOLE SINK
// =============================================================================

// consoleSink prints engine output as lines of text. The engine calls it on
// the loop goroutine while the REPL reads its state from the input
// goroutine, so everything is guarded by mu.
type consoleSink struct {
	mu   sync.Mutex
	out  io.Writer
	st   *cliStyles
	term *format.Terminal
	now  func() time.Time

	showTime bool

	// echoNext prints the next user message, for input the terminal did not
	// show (suggestion shortcuts and option numbers).
	echoNext bool

	suggestions  []suggest.Suggestion
	options      []protocol.Option
	connectivity flow.Connectivity

	idle      chan struct{}
	navigated chan string
}

func newConsoleSink(out io.Writer, st *cliStyles, hyperlinks, showTime bool) *consoleSink {
	return &consoleSink{
		out:       out,
		st:        st,
		term:      format.NewTerminal(st.renderer, hyperlinks),
		now:       time.Now,
		showTime:  showTime,
		idle:      make(chan struct{}, 1),
		navigated: make(chan string, 1),
	}
}

func (s *consoleSink) stamp() string {
	if !s.showTime {
		return ""
	}
	return s.st.Dim.Render(s.now().Format("15:04")) + " "
}

func (s *consoleSink) AppendMessage(role model.Role, markup string, style flow.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch role {
	case model.RoleUser:
		if !s.echoNext {
			return
		}
		s.echoNext = false
		fmt.Fprintf(s.out, "%s%s %s\n", s.stamp(), s.st.Dim.Render(role.DisplayName()+":"), format.Plain(markup))

	case model.RoleSystem:
		fmt.Fprintf(s.out, "%s%s\n", s.stamp(), s.term.WithBase(s.st.SystemText).Render(markup))

	default:
		// Options belong to the newest bot message only.
		s.options = nil
		base := s.st.Value
		switch style {
		case flow.StyleError:
			base = s.st.Error
		case flow.StyleSuccess:
			base = s.st.Success
		}
		text := s.term.WithBase(base).Render(markup)
		fmt.Fprintf(s.out, "%s%s %s\n", s.stamp(), s.st.BotName.Render(role.DisplayName()+":"), indentContinuation(text, "  "))
	}
}

func (s *consoleSink) ShowChecklist(title string, items []flow.ChecklistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]string, len(items))
	for i, it := range items {
		rows[i] = s.st.field(it.Label, it.Status)
	}
	fmt.Fprintf(s.out, "  %s %s\n", s.st.Title.Render(title+":"), strings.Join(rows, "  "))
}

func (s *consoleSink) ShowSuggestions(suggestions []suggest.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suggestions = suggestions
	if len(suggestions) == 0 {
		return
	}
	parts := make([]string, len(suggestions))
	for i, sg := range suggestions {
		parts[i] = s.st.Key.Render(fmt.Sprintf("/%d", i+1)) + " " + sg.Label
	}
	fmt.Fprintf(s.out, "  %s %s\n", s.st.Dim.Render("Sugestões:"), strings.Join(parts, "  "))
}

func (s *consoleSink) ShowAttachment(a flow.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch a.Kind {
	case protocol.KindOptions:
		s.options = a.Options
		for i, opt := range a.Options {
			fmt.Fprintf(s.out, "    %s %s\n", s.st.Key.Render(fmt.Sprintf("%d)", i+1)), opt.Label)
		}
	case protocol.KindForm:
		for _, f := range a.Form {
			fmt.Fprintf(s.out, "    • %s %s\n", f.Label, s.st.Dim.Render("("+f.Type+")"))
		}
	}
}

func (s *consoleSink) SetConnectivity(c flow.Connectivity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c == s.connectivity {
		return
	}
	s.connectivity = c
	st := s.st.Success
	switch c {
	case flow.Disconnected:
		st = s.st.Error
	case flow.Degraded:
		st = s.st.Warning
	}
	fmt.Fprintf(s.out, "  %s\n", st.Render(c.Icon()+" "+c.String()))
}

func (s *consoleSink) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if busy {
		fmt.Fprintf(s.out, "  %s\n", s.st.Dim.Render("AgendeID está digitando..."))
		return
	}
	select {
	case s.idle <- struct{}{}:
	default:
	}
}

func (s *consoleSink) Navigate(route string) {
	select {
	case s.navigated <- route:
	default:
	}
}

func (s *consoleSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suggestions = nil
	s.options = nil
	fmt.Fprintf(s.out, "%s\n", s.st.separator(terminalWidth(s.out)))
}

// =============================================================================
// INPUT-SIDE ACCESSORS
// =============================================================================

// suggestion returns the 1-based suggestion n.
func (s *consoleSink) suggestion(n int) (suggest.Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.suggestions) {
		return suggest.Suggestion{}, false
	}
	return s.suggestions[n-1], true
}

// option returns the value of the 1-based option n of the latest list.
func (s *consoleSink) option(n int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.options) {
		return "", false
	}
	return s.options[n-1].Value, true
}

func (s *consoleSink) echoNextUser() {
	s.mu.Lock()
	s.echoNext = true
	s.mu.Unlock()
}

// drainIdle clears a stale idle signal before a new request.
func (s *consoleSink) drainIdle() {
	select {
	case <-s.idle:
	default:
	}
}

// printf writes a line outside the engine's flow.
func (s *consoleSink) printf(layout string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, layout, args...)
}

// indentContinuation indents every line after the first.
func indentContinuation(text, indent string) string {
	return strings.ReplaceAll(text, "\n", "\n"+indent)
}
