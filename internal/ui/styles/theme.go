// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
)

// Theme holds the styles of the chat screen. All styles come from one
// renderer so the dark/light choice applies everywhere.
type Theme struct {
	Name     string
	IsDark   bool
	Renderer *lipgloss.Renderer

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderPage  lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLES
	// ==========================================================================

	UserBubble    lipgloss.Style
	BotBubble     lipgloss.Style
	SystemBubble  lipgloss.Style
	ErrorBubble   lipgloss.Style
	SuccessBubble lipgloss.Style
	BubbleAuthor  lipgloss.Style
	BubbleTime    lipgloss.Style

	// ==========================================================================
	// ATTACHMENTS
	// ==========================================================================

	OptionKey   lipgloss.Style
	OptionLabel lipgloss.Style
	FormField   lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	CharCount        lipgloss.Style
	CharCountWarning lipgloss.Style
	CharCountDanger  lipgloss.Style

	// ==========================================================================
	// SIDEBAR (checklist)
	// ==========================================================================

	Sidebar      lipgloss.Style
	SidebarTitle lipgloss.Style
	FieldPending lipgloss.Style
	FieldActive  lipgloss.Style
	FieldFilled  lipgloss.Style
	FieldError   lipgloss.Style

	// ==========================================================================
	// SUGGESTION BAR
	// ==========================================================================

	SuggestionBar   lipgloss.Style
	SuggestionKey   lipgloss.Style
	SuggestionLabel lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar    lipgloss.Style
	Connected    lipgloss.Style
	Disconnected lipgloss.Style
	Degraded     lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Spinner      lipgloss.Style
	BusyText     lipgloss.Style

	// ==========================================================================
	// OVERLAYS
	// ==========================================================================

	HelpBox    lipgloss.Style
	Redirect   lipgloss.Style
	MutedText  lipgloss.Style
	ErrorText  lipgloss.Style
	AccentText lipgloss.Style
}

// NewTheme creates a theme for stdout. name is "dark" or "light"; anything
// else follows the terminal background.
func NewTheme(name string) *Theme {
	return NewThemeFor(os.Stdout, name)
}

// NewThemeFor creates a theme rendering to w.
func NewThemeFor(w io.Writer, name string) *Theme {
	r := lipgloss.NewRenderer(w)
	switch name {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}

	t := &Theme{
		Name:     name,
		IsDark:   r.HasDarkBackground(),
		Renderer: r,
	}
	t.initStyles()
	return t
}

// NewPlainTheme returns a theme without colors, for tests and dumb terminals.
func NewPlainTheme() *Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	r.SetHasDarkBackground(true)
	t := &Theme{Name: "plain", IsDark: true, Renderer: r}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	s := t.Renderer.NewStyle

	// Header
	t.Header = s().
		Bold(true).
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = s().Bold(true).Foreground(Indigo)
	t.HeaderPage = s().Foreground(TextSecondary).Italic(true)

	// Bubbles
	t.UserBubble = s().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.BotBubble = s().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.SystemBubble = s().
		Foreground(SystemBubbleFg).
		Italic(true).
		Padding(0, 2)

	t.ErrorBubble = t.BotBubble.
		Foreground(ErrorBubbleFg).
		BorderForeground(Rose)

	t.SuccessBubble = t.BotBubble.
		Foreground(SuccessBubbleFg).
		BorderForeground(Emerald)

	t.BubbleAuthor = s().Bold(true).Foreground(Indigo)
	t.BubbleTime = s().Foreground(TextMuted)

	// Attachments
	t.OptionKey = s().Bold(true).Foreground(Cyan)
	t.OptionLabel = s().Foreground(TextPrimary)
	t.FormField = s().Foreground(TextSecondary)

	// Input
	t.InputContainer = s().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = s().Foreground(Cyan).Bold(true)
	t.CharCount = s().Foreground(TextMuted)
	t.CharCountWarning = s().Foreground(Amber)
	t.CharCountDanger = s().Foreground(Rose).Bold(true)

	// Sidebar
	t.Sidebar = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarTitle = s().Bold(true).Foreground(Indigo).MarginBottom(1)
	t.FieldPending = s().Foreground(TextMuted)
	t.FieldActive = s().Foreground(Amber)
	t.FieldFilled = s().Foreground(Emerald)
	t.FieldError = s().Foreground(Rose)

	// Suggestions
	t.SuggestionBar = s().Padding(0, 1)
	t.SuggestionKey = s().Foreground(Cyan).Bold(true)
	t.SuggestionLabel = s().Foreground(TextSecondary)

	// Status bar
	t.StatusBar = s().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.Connected = s().Foreground(Emerald).Bold(true)
	t.Disconnected = s().Foreground(Rose).Bold(true)
	t.Degraded = s().Foreground(Amber).Bold(true)
	t.ShortcutKey = s().Foreground(Cyan)
	t.ShortcutDesc = s().Foreground(TextMuted)
	t.Spinner = s().Foreground(Indigo)
	t.BusyText = s().Foreground(TextSecondary).Italic(true)

	// Overlays
	t.HelpBox = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(0, 1)
	t.Redirect = s().Foreground(Amber).Bold(true)
	t.MutedText = s().Foreground(TextMuted)
	t.ErrorText = s().Foreground(Rose)
	t.AccentText = s().Foreground(Indigo).Bold(true)
}

// =============================================================================
// LOOKUPS
// =============================================================================

// BubbleFor returns the bubble style for a transcript entry.
func (t *Theme) BubbleFor(user, system bool, style flow.Style) lipgloss.Style {
	switch {
	case user:
		return t.UserBubble
	case system:
		return t.SystemBubble
	case style == flow.StyleError:
		return t.ErrorBubble
	case style == flow.StyleSuccess:
		return t.SuccessBubble
	default:
		return t.BotBubble
	}
}

// FieldStyle returns the checklist style for a field status.
func (t *Theme) FieldStyle(s protocol.FieldStatus) lipgloss.Style {
	switch s {
	case protocol.StatusCollecting:
		return t.FieldActive
	case protocol.StatusFilled:
		return t.FieldFilled
	case protocol.StatusError:
		return t.FieldError
	default:
		return t.FieldPending
	}
}

// ConnectivityStyle returns the status bar style for c.
func (t *Theme) ConnectivityStyle(c flow.Connectivity) lipgloss.Style {
	switch c {
	case flow.Disconnected:
		return t.Disconnected
	case flow.Degraded:
		return t.Degraded
	default:
		return t.Connected
	}
}
