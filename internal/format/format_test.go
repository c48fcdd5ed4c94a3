// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"script tag", "<script>", "&lt;script&gt;"},
		{"quotes", `"a" 'b'`, "&quot;a&quot; &#39;b&#39;"},
		{"ampersand first", "&lt;", "&amp;lt;"},
		{"newline", "linha 1\nlinha 2", "linha 1<br>linha 2"},
		{"crlf", "a\r\nb", "a<br>b"},
		{"plain", "Olá, tudo bem?", "Olá, tudo bem?"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.in); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitize_NotIdempotent(t *testing.T) {
	once := Sanitize("<b>")
	assert.NotEqual(t, once, Sanitize(once))
}

func TestRender_BoldAfterEscaping(t *testing.T) {
	got := Render("**bold**")
	assert.Equal(t, "<strong>bold</strong>", got)
	assert.NotContains(t, got, "&lt;strong")

	got = Render("**<i>x</i>**")
	assert.Equal(t, "<strong>&lt;i&gt;x&lt;/i&gt;</strong>", got)
}

func TestFormat_Order(t *testing.T) {
	assert.Equal(t, "<strong>a</strong> e <em>b</em>", Format("**a** e *b*"))
}

func TestRender_Autolink(t *testing.T) {
	got := Render("Veja https://agendeid.example/locais\nObrigado")
	assert.Equal(t,
		`Veja <a href="https://agendeid.example/locais" target="_blank" rel="noopener noreferrer">https://agendeid.example/locais</a><br>Obrigado`,
		got)
}

func TestRender_InjectionStaysEscaped(t *testing.T) {
	got := Render(`<img src=x onerror="alert(1)">`)
	assert.NotContains(t, got, "<img")
	assert.Contains(t, got, "&lt;img")
}

func TestSanitizeHTML(t *testing.T) {
	got := SanitizeHTML(`<p onclick="x()">Olá <b>mundo</b></p><script>alert(1)</script>`)
	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "onclick")
	assert.Contains(t, got, "<b>mundo</b>")
}

func asciiTerminal(hyperlinks bool) *Terminal {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return NewTerminal(r, hyperlinks)
}

func TestTerminal_RenderPlainProfile(t *testing.T) {
	term := asciiTerminal(false)

	got := term.Render(Render("**Nome**: Ana & <Bia>\nlinha"))
	assert.Equal(t, "Nome: Ana & <Bia>\nlinha", got)
}

func TestTerminal_LinkWithoutHyperlinks(t *testing.T) {
	term := asciiTerminal(false)

	got := term.Render(`<a href="https://x.example">site</a>`)
	assert.Equal(t, "site (https://x.example)", got)

	got = term.Render(Render("https://x.example"))
	assert.Equal(t, "https://x.example", got)
}

func TestTerminal_Hyperlinks(t *testing.T) {
	term := asciiTerminal(true)

	got := term.Render(Render("https://x.example"))
	assert.True(t, strings.Contains(got, "\x1b]8;;https://x.example"), "expected OSC 8 sequence, got %q", got)
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "Itens:\n• um\n• dois", Plain("Itens:<ul><li>um</li><li>dois</li></ul>"))
	assert.Equal(t, `"citação"`, Plain(Sanitize(`"citação"`)))
}
