// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
)

func TestNewThemeFor_ForcedBackground(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, NewThemeFor(&buf, "dark").IsDark)
	assert.False(t, NewThemeFor(&buf, "light").IsDark)
	assert.Equal(t, "light", NewThemeFor(&buf, "light").Name)
}

func TestPlainTheme_NoEscapes(t *testing.T) {
	theme := NewPlainTheme()
	out := theme.Connected.Render("Conectado")
	assert.Equal(t, "Conectado", out)
	assert.NotContains(t, theme.BotBubble.Render("oi"), "\x1b[")
}

func TestBubbleFor(t *testing.T) {
	theme := NewPlainTheme()

	// Bubbles differ by border and margin even without colors.
	user := theme.BubbleFor(true, false, flow.StyleNormal).Render("x")
	bot := theme.BubbleFor(false, false, flow.StyleNormal).Render("x")
	system := theme.BubbleFor(false, true, flow.StyleNormal).Render("x")

	assert.True(t, strings.HasPrefix(user, "    "), "user bubbles are indented")
	assert.Contains(t, bot, "╭")
	assert.NotContains(t, system, "╭")
	assert.Equal(t, theme.ErrorBubble.GetBorderStyle(), theme.BubbleFor(false, false, flow.StyleError).GetBorderStyle())
}

func TestFieldStyle(t *testing.T) {
	theme := NewThemeFor(&bytes.Buffer{}, "dark")
	tests := []struct {
		status protocol.FieldStatus
		want   any
	}{
		{protocol.StatusPending, TextMuted},
		{protocol.StatusCollecting, Amber},
		{protocol.StatusFilled, Emerald},
		{protocol.StatusError, Rose},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, theme.FieldStyle(tc.status).GetForeground(), tc.status.String())
	}
}

func TestConnectivityStyle(t *testing.T) {
	theme := NewThemeFor(&bytes.Buffer{}, "dark")
	assert.Equal(t, Emerald, theme.ConnectivityStyle(flow.Connected).GetForeground())
	assert.Equal(t, Rose, theme.ConnectivityStyle(flow.Disconnected).GetForeground())
	assert.Equal(t, Amber, theme.ConnectivityStyle(flow.Degraded).GetForeground())
}

func TestRenderHelpers(t *testing.T) {
	assert.Contains(t, RenderSuccess("ok"), "[OK] ok")
	assert.Contains(t, RenderError("falhou"), "[X] falhou")
	assert.Contains(t, RenderWarning("atenção"), "[!] atenção")
	assert.Contains(t, RenderInfo("info"), "[i] info")
}
