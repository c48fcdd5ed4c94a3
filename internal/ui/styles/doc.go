// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and Lip Gloss styles of the AgendeID chat
screen.

# Colors (colors.go)

All colors are lipgloss.AdaptiveColor values:

	Indigo  - brand, bot name, sidebar title
	Cyan    - prompt, links, suggestion keys
	Emerald - success bubbles, filled fields, connected
	Amber   - collecting fields, degraded connection
	Rose    - error bubbles, failed fields, disconnected

# Theme (theme.go)

A Theme is bound to one lipgloss.Renderer, so "dark" and "light" from the
ui.theme setting override the terminal background detection:

	theme := styles.NewTheme(cfg.UI.Theme)
	bubble := theme.BubbleFor(false, false, flow.StyleError)

NewPlainTheme strips colors for tests and dumb terminals.
*/
package styles
