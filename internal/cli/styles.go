// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/agendeid-chat/internal/protocol"
	"github.com/jeranaias/agendeid-chat/internal/ui/styles"
)

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

// cliStyles are the styles of the non-TUI commands, bound to one renderer.
type cliStyles struct {
	renderer *lipgloss.Renderer

	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Dim       lipgloss.Style
	Separator lipgloss.Style
	Prompt    lipgloss.Style

	BotName    lipgloss.Style
	SystemText lipgloss.Style
	Key        lipgloss.Style
}

// newCLIStyles builds the styles for w. A theme of "dark" or "light" pins the
// adaptive colors; anything else follows the terminal background.
func newCLIStyles(w io.Writer, theme string) *cliStyles {
	r := newRenderer(w)
	switch theme {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	return &cliStyles{
		renderer:   r,
		Title:      r.NewStyle().Bold(true).Foreground(styles.Indigo),
		Label:      r.NewStyle().Foreground(styles.TextSecondary).Width(18),
		Value:      r.NewStyle().Foreground(styles.TextPrimary),
		Success:    r.NewStyle().Foreground(styles.Emerald).Bold(true),
		Error:      r.NewStyle().Foreground(styles.Rose).Bold(true),
		Warning:    r.NewStyle().Foreground(styles.Amber),
		Dim:        r.NewStyle().Foreground(styles.TextMuted),
		Separator:  r.NewStyle().Foreground(styles.Overlay),
		Prompt:     r.NewStyle().Foreground(styles.Cyan).Bold(true),
		BotName:    r.NewStyle().Foreground(styles.Indigo).Bold(true),
		SystemText: r.NewStyle().Foreground(styles.SystemBubbleFg).Italic(true),
		Key:        r.NewStyle().Foreground(styles.Cyan).Bold(true),
	}
}

// separator renders a horizontal rule of the given width.
func (s *cliStyles) separator(width int) string {
	if width <= 0 || width > 70 {
		width = 70
	}
	return s.Separator.Render(strings.Repeat("─", width))
}

// status renders an [OK]/[X]/[!] marker.
func (s *cliStyles) status(ok bool, warn bool) string {
	switch {
	case ok:
		return s.Success.Render(styles.StatusIndicators.Success)
	case warn:
		return s.Warning.Render(styles.StatusIndicators.Warning)
	default:
		return s.Error.Render(styles.StatusIndicators.Error)
	}
}

// field renders one checklist row.
func (s *cliStyles) field(label string, status protocol.FieldStatus) string {
	var st lipgloss.Style
	switch status {
	case protocol.StatusFilled:
		st = s.Success
	case protocol.StatusError:
		st = s.Error
	case protocol.StatusCollecting:
		st = s.Warning
	default:
		st = s.Dim
	}
	return st.Render(status.Icon()+" "+label) + s.Dim.Render(" ("+status.Label()+")")
}

// markdown renders md with glamour for the renderer's output. Without colors
// it uses the notty style; on failure the Markdown is returned as is.
func (s *cliStyles) markdown(md string, width int) string {
	style := "notty"
	if s.renderer.ColorProfile() != termenv.Ascii {
		style = "light"
		if s.renderer.HasDarkBackground() {
			style = "dark"
		}
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
