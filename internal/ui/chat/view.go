// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
	"github.com/jeranaias/agendeid-chat/internal/util"
)

const (
	sidebarWidth    = 30
	minWidthSidebar = 70
	maxBubbleWidth  = 76
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}
	if m.quitting {
		return ""
	}

	var body string
	if m.showHelp {
		body = m.renderHelp()
	} else {
		body = m.viewport.View()
		if sb := m.renderSidebar(); sb != "" {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, sb)
		}
	}

	parts := []string{m.renderHeader(), body}
	if bar := m.renderSuggestions(); bar != "" {
		parts = append(parts, bar)
	}
	parts = append(parts, m.renderInput(), m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) sidebarWidth() int {
	if !m.showSidebar || m.width < minWidthSidebar {
		return 0
	}
	if _, items := m.screen.Checklist(); len(items) == 0 {
		return 0
	}
	return sidebarWidth
}

// chromeHeight is the number of rows outside the viewport.
func (m Model) chromeHeight() int {
	h := 1 + 2 + 1 // header, input with top border, status
	if len(m.screen.Suggestions()) > 0 {
		h++
	}
	return h
}

// =============================================================================
// HEADER AND STATUS
// =============================================================================

func pageTitle(route string) string {
	switch route {
	case flow.RouteClient:
		return "Painel do cliente"
	case flow.RouteStaff:
		return "Painel do funcionário"
	default:
		return "Atendimento"
	}
}

func (m Model) renderHeader() string {
	profile := m.engine.Profile()
	title := m.theme.HeaderBrand.Render("AgendeID") + "  " +
		m.theme.HeaderPage.Render(pageTitle(profile.Route)+" · "+profile.Route)
	return m.theme.Header.Width(m.width).MaxHeight(1).Render(title)
}

func (m Model) renderStatus() string {
	snap := m.engine.Snapshot()
	c := m.screen.Connectivity()

	items := []string{m.theme.ConnectivityStyle(c).Render(c.Icon() + " " + c.String())}
	if snap.Authenticated {
		items = append(items, model.ParseUserType(snap.Role).DisplayName())
	}
	if snap.RetryCount > 0 {
		items = append(items, fmt.Sprintf("tentativas %d/%d", snap.RetryCount, snap.MaxRetries))
	}
	if m.screen.Busy() {
		items = append(items, m.spinner.View()+m.theme.BusyText.Render(" Processando..."))
	}

	var keys []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		keys = append(keys, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	items = append(items, strings.Join(keys, "  "))

	return m.theme.StatusBar.MaxWidth(m.width).Render(strings.Join(items, " │ "))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript draws every visible bubble for a viewport of width.
func (m Model) renderTranscript(width int) string {
	bubbleWidth := width - 8
	if bubbleWidth > maxBubbleWidth {
		bubbleWidth = maxBubbleWidth
	}
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	var b strings.Builder
	for i, e := range m.screen.Entries() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(e, bubbleWidth))
		b.WriteString("\n")
	}
	if m.screen.Busy() {
		b.WriteString("\n" + m.theme.MutedText.Render("  AgendeID está digitando..."))
	}
	return b.String()
}

func (m Model) renderEntry(e Entry, width int) string {
	msg := e.Message
	user := msg.Role == model.RoleUser
	system := msg.Role == model.RoleSystem

	if system {
		return m.theme.SystemBubble.Render(m.term.Render(msg.Text))
	}

	head := m.theme.BubbleAuthor.Render(msg.Role.DisplayName())
	if m.showTimestamps {
		head += " " + m.theme.BubbleTime.Render(msg.Clock())
	}

	bubble := m.theme.BubbleFor(user, system, e.Style)
	text := m.term.WithBase(m.theme.Renderer.NewStyle().Foreground(bubble.GetForeground())).Render(msg.Text)
	if e.Attachment != nil {
		if att := m.renderAttachment(*e.Attachment); att != "" {
			text += "\n\n" + att
		}
	}

	rendered := bubble.Width(width).Render(text)
	if user {
		head = lipgloss.PlaceHorizontal(lipgloss.Width(rendered), lipgloss.Right, head)
	} else {
		head = "  " + head
	}
	return head + "\n" + rendered
}

func (m Model) renderAttachment(a flow.Attachment) string {
	var lines []string
	switch a.Kind {
	case protocol.KindOptions:
		for i, opt := range a.Options {
			lines = append(lines, m.theme.OptionKey.Render(fmt.Sprintf("[%d]", i+1))+" "+m.theme.OptionLabel.Render(opt.Label))
		}
	case protocol.KindForm:
		for _, f := range a.Form {
			label := f.Label
			if label == "" {
				label = f.Name
			}
			if f.Type != "" {
				label += " (" + f.Type + ")"
			}
			lines = append(lines, m.theme.FormField.Render("• "+label))
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// SIDEBAR, SUGGESTIONS, INPUT
// =============================================================================

func (m Model) renderSidebar() string {
	if m.sidebarWidth() == 0 {
		return ""
	}
	title, items := m.screen.Checklist()
	inner := sidebarWidth - 4

	lines := []string{m.theme.SidebarTitle.Render(util.TruncateWidth(title, inner))}
	for _, item := range items {
		label := util.PadWidth(util.TruncateWidth(item.Label, inner-4), inner-4)
		lines = append(lines, m.theme.FieldStyle(item.Status).Render(item.Status.Icon()+" "+label))
		lines = append(lines, m.theme.MutedText.Render("   "+item.Status.Label()))
	}
	return m.theme.Sidebar.
		Width(sidebarWidth - 2).
		Height(m.viewport.Height - 2).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderSuggestions() string {
	suggestions := m.screen.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}
	// Widths are measured on plain text; labels that do not fit are dropped
	// whole.
	avail := m.width - 2
	used := 0
	var parts []string
	for i, s := range suggestions {
		if i >= 9 {
			break
		}
		keyText := fmt.Sprintf("%d", i+1)
		w := util.StringWidth(keyText + " " + s.Label)
		if len(parts) > 0 {
			w += 3
		}
		if used+w > avail {
			break
		}
		used += w
		parts = append(parts, m.theme.SuggestionKey.Render(keyText)+" "+m.theme.SuggestionLabel.Render(s.Label))
	}
	return m.theme.SuggestionBar.Render(strings.Join(parts, "   "))
}

func (m Model) renderInput() string {
	n := utf8.RuneCountInString(m.input.Value())
	style := m.theme.CharCount
	switch {
	case n > m.maxLength:
		style = m.theme.CharCountDanger
	case n*10 >= m.maxLength*9:
		style = m.theme.CharCountWarning
	}
	count := style.Render(fmt.Sprintf("%d/%d", n, m.maxLength))

	line := m.input.View()
	gap := m.width - 2 - lipgloss.Width(line) - lipgloss.Width(count)
	if gap < 1 {
		gap = 1
	}
	return m.theme.InputContainer.Width(m.width).Render(line + strings.Repeat(" ", gap) + count)
}
