// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
	"github.com/jeranaias/agendeid-chat/internal/schedule"
	"github.com/jeranaias/agendeid-chat/internal/ui/styles"
)

// =============================================================================
// HARNESS
// =============================================================================

type fakeTransport struct {
	replies []any
	sent    []string
}

func (t *fakeTransport) Send(ctx context.Context, text string) (any, error) {
	t.sent = append(t.sent, text)
	if len(t.replies) == 0 {
		return map[string]any{"resposta": "ok"}, nil
	}
	r := t.replies[0]
	t.replies = t.replies[1:]
	return r, nil
}

type harness struct {
	m      Model
	screen *Screen
	engine *flow.Engine
	tr     *fakeTransport
	clock  *schedule.Manual
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := schedule.NewManual()
	screen := NewScreen(model.DefaultDisplayLimit)
	tr := &fakeTransport{}

	engine, err := flow.New(flow.Options{
		Transport: tr,
		Sink:      screen,
		Loop:      clock,
		Scheduler: clock,
		Runner:    clock,
	})
	require.NoError(t, err)

	h := &harness{
		m:      New(engine, screen, Options{Theme: styles.NewPlainTheme(), ShowSidebar: true}),
		screen: screen,
		engine: engine,
		tr:     tr,
		clock:  clock,
	}
	h.update(tea.WindowSizeMsg{Width: 100, Height: 30})
	h.update(startMsg{})
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// settle runs queued engine callbacks and lets the model redraw.
func (h *harness) settle() {
	h.clock.Drain()
	h.update(postedMsg{fn: func() {}})
}

func (h *harness) typeText(s string) {
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) enter() {
	h.update(tea.KeyMsg{Type: tea.KeyEnter})
}

func (h *harness) texts(role model.Role) []string {
	var out []string
	for _, e := range h.screen.Entries() {
		if e.Message.Role == role {
			out = append(out, e.Message.Text)
		}
	}
	return out
}

// =============================================================================
// SCREEN TESTS
// =============================================================================

func TestScreen_WindowEviction(t *testing.T) {
	s := NewScreen(3)
	for _, text := range []string{"a", "b", "c", "d"} {
		s.AppendMessage(model.RoleBot, text, flow.StyleNormal)
	}

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "b", entries[0].Message.Text)
	assert.Len(t, s.extras, 3)
}

func TestScreen_AttachmentAndClear(t *testing.T) {
	s := NewScreen(10)
	s.ShowAttachment(flow.Attachment{Kind: protocol.KindOptions})
	assert.Nil(t, s.LastOptions(), "no bubble to attach to")

	s.AppendMessage(model.RoleBot, "Escolha", flow.StyleNormal)
	s.ShowAttachment(flow.Attachment{
		Kind:    protocol.KindOptions,
		Options: []protocol.Option{{Label: "Centro", Value: "c1"}},
	})
	require.NotNil(t, s.LastOptions())
	assert.Equal(t, "c1", s.LastOptions().Options[0].Value)

	s.AppendMessage(model.RoleUser, "1", flow.StyleNormal)
	assert.Nil(t, s.LastOptions(), "options belong to the newest bubble only")

	s.ShowChecklist("Status do Login", []flow.ChecklistItem{{Field: "email", Label: "Email"}})
	s.Clear()
	assert.Empty(t, s.Entries())
	_, items := s.Checklist()
	assert.Empty(t, items)
	assert.True(t, s.takeDirty())
	assert.False(t, s.takeDirty())
}

func TestProgramLoop_HoldsUntilAttach(t *testing.T) {
	l := NewProgramLoop()
	l.Post(func() {})
	l.Post(func() {})
	assert.Len(t, l.pending, 2)
}

// =============================================================================
// MODEL TESTS
// =============================================================================

func TestModel_StartShowsWelcome(t *testing.T) {
	h := newHarness(t)

	require.NotEmpty(t, h.texts(model.RoleBot))
	view := h.m.View()
	assert.Contains(t, view, "AgendeID")
	assert.Contains(t, view, "Conectado")
	assert.Contains(t, view, "Login")
	assert.Contains(t, view, "0/1000")
}

func TestModel_SubmitRoundTrip(t *testing.T) {
	h := newHarness(t)

	h.typeText("olá")
	h.enter()
	assert.Equal(t, []string{"olá"}, h.tr.sent)
	assert.Equal(t, "", h.m.input.Value())
	assert.True(t, h.screen.Busy())

	h.settle()
	assert.False(t, h.screen.Busy())
	assert.Equal(t, []string{"olá"}, h.texts(model.RoleUser))
	assert.Contains(t, h.texts(model.RoleBot), "ok")
	assert.Contains(t, h.m.viewport.View(), "ok")
}

func TestModel_BusyKeepsInput(t *testing.T) {
	h := newHarness(t)

	h.typeText("primeira")
	h.enter()
	h.typeText("segunda")
	h.enter()

	assert.Equal(t, []string{"primeira"}, h.tr.sent)
	assert.Equal(t, "segunda", h.m.input.Value())
}

func TestModel_OptionNumberSendsValue(t *testing.T) {
	h := newHarness(t)
	h.tr.replies = append(h.tr.replies, map[string]any{
		"resposta": "Escolha o local",
		"tipo":     "opcoes",
		"opcoes": []any{
			map[string]any{"label": "Centro", "value": "local-centro"},
			map[string]any{"label": "Zona Norte", "value": "local-norte"},
		},
	})

	h.typeText("agendar")
	h.enter()
	h.settle()
	assert.Contains(t, h.m.viewport.View(), "[2] Zona Norte")

	h.typeText("2")
	h.enter()
	assert.Equal(t, []string{"agendar", "local-norte"}, h.tr.sent)
}

func TestModel_SuggestionKey(t *testing.T) {
	h := newHarness(t)

	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})
	assert.Equal(t, []string{"Login"}, h.tr.sent)
	assert.Equal(t, flow.StateAwaitingLogin, h.engine.State())

	h.settle()
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'9'}, Alt: true})
	assert.Len(t, h.tr.sent, 1, "no ninth suggestion")
}

func TestModel_ChecklistSidebar(t *testing.T) {
	h := newHarness(t)

	h.typeText("quero fazer cadastro")
	h.enter()
	h.settle()

	title, items := h.screen.Checklist()
	assert.Equal(t, "Status do Cadastro", title)
	assert.Len(t, items, 7)
	assert.Contains(t, h.m.View(), "Status do Cadastro")

	h.update(tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.NotContains(t, h.m.View(), "Status do Cadastro")
}

func TestModel_ClearKey(t *testing.T) {
	h := newHarness(t)
	h.typeText("olá")
	h.enter()
	h.settle()
	require.Len(t, h.texts(model.RoleUser), 1)

	h.update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, h.texts(model.RoleUser))
	assert.Len(t, h.texts(model.RoleBot), 1, "welcome only")
	assert.Equal(t, 0, h.engine.History().Len())
}

func TestModel_NavigationQuits(t *testing.T) {
	h := newHarness(t)
	h.tr.replies = append(h.tr.replies, map[string]any{"resposta": protocol.SentinelLoginClient})

	h.typeText("minha senha")
	h.enter()
	h.settle()
	assert.False(t, h.m.quitting)

	h.clock.Advance(3 * time.Second)
	h.update(postedMsg{fn: func() {}})
	assert.True(t, h.m.quitting)
	assert.Equal(t, flow.RouteClient, h.m.Route())
}

func TestModel_QuitClosesEngine(t *testing.T) {
	h := newHarness(t)
	h.update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.True(t, h.m.quitting)
	assert.Equal(t, "", h.m.View())
	assert.ErrorIs(t, h.engine.Submit(context.Background(), "oi"), flow.ErrClosed)
	assert.Equal(t, "", h.m.Route())
}

func TestModel_HelpToggle(t *testing.T) {
	h := newHarness(t)

	h.update(tea.KeyMsg{Type: tea.KeyF1})
	assert.True(t, h.m.showHelp)
	assert.NotEmpty(t, h.m.View())

	h.typeText("x")
	assert.Equal(t, "", h.m.input.Value(), "keys do not reach the input while help is open")

	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.m.showHelp)
	assert.False(t, h.m.quitting)
}

func TestModel_ConfigMsg(t *testing.T) {
	h := newHarness(t)
	h.update(ConfigMsg{ShowTimestamps: true, ShowSidebar: false, CheckInterval: time.Minute})

	assert.True(t, h.m.showTimestamps)
	assert.False(t, h.m.showSidebar)
	assert.Equal(t, time.Minute, h.m.monitor.Interval())
}

func TestModel_TooLongKeepsInput(t *testing.T) {
	h := newHarness(t)
	long := make([]rune, 1001)
	for i := range long {
		long[i] = 'a'
	}
	h.typeText(string(long))
	h.enter()

	assert.Empty(t, h.tr.sent)
	assert.Equal(t, string(long), h.m.input.Value())
	assert.Contains(t, h.m.renderInput(), "1001/1000")
}

// =============================================================================
// HELPERS
// =============================================================================

func TestSuggestionIndex(t *testing.T) {
	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"alt+1", 0, true},
		{"alt+9", 8, true},
		{"alt+0", 0, false},
		{"alt+a", 0, false},
		{"ctrl+1", 0, false},
		{"1", 0, false},
	}
	for _, tc := range tests {
		got, ok := suggestionIndex(tc.key)
		assert.Equal(t, tc.ok, ok, tc.key)
		assert.Equal(t, tc.want, got, tc.key)
	}
}

func TestHelpMarkdown(t *testing.T) {
	md := HelpMarkdown(DefaultKeyMap(), 500)
	assert.Contains(t, md, "# Ajuda do AgendeID")
	assert.Contains(t, md, "`Alt+1..9`")
	assert.Contains(t, md, "`C-l` | limpar conversa")
	assert.Contains(t, md, "500 caracteres")
}
