// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/net/html"
)

// =============================================================================
// TERMINAL RENDERER
// =============================================================================

// Terminal renders safe chat markup (the output of Render or SanitizeHTML)
// as styled terminal text.
type Terminal struct {
	Text   lipgloss.Style
	Bold   lipgloss.Style
	Italic lipgloss.Style
	Link   lipgloss.Style

	// Hyperlinks emits OSC 8 sequences for links when true.
	Hyperlinks bool
}

// NewTerminal creates a renderer whose styles are bound to r.
// A nil renderer uses the lipgloss default renderer.
func NewTerminal(r *lipgloss.Renderer, hyperlinks bool) *Terminal {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return &Terminal{
		Text:       r.NewStyle(),
		Bold:       r.NewStyle().Bold(true),
		Italic:     r.NewStyle().Italic(true),
		Link:       r.NewStyle().Underline(true).Foreground(lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}),
		Hyperlinks: hyperlinks,
	}
}

// WithBase returns a copy whose plain text uses base. Bold and italic
// inherit base's colors.
func (t *Terminal) WithBase(base lipgloss.Style) *Terminal {
	c := *t
	c.Text = base
	c.Bold = base.Bold(true)
	c.Italic = base.Italic(true)
	return &c
}

// Render converts markup into styled text.
func (t *Terminal) Render(markup string) string {
	var b strings.Builder
	walk(markup, func(s span) {
		switch {
		case s.href != "":
			label := t.Link.Render(s.text)
			if t.Hyperlinks {
				b.WriteString(termenv.Hyperlink(s.href, label))
			} else {
				b.WriteString(label)
				if s.text != s.href {
					b.WriteString(" (" + s.href + ")")
				}
			}
		case s.text == "\n":
			b.WriteString("\n")
		case s.bold:
			b.WriteString(t.Bold.Render(s.text))
		case s.italic:
			b.WriteString(t.Italic.Render(s.text))
		default:
			b.WriteString(t.Text.Render(s.text))
		}
	})
	return strings.TrimRight(b.String(), "\n")
}

// Plain strips markup and entities, keeping line breaks. Links keep their
// target in parentheses when the label differs.
func Plain(markup string) string {
	var b strings.Builder
	walk(markup, func(s span) {
		b.WriteString(s.text)
		if s.href != "" && s.text != s.href {
			b.WriteString(" (" + s.href + ")")
		}
	})
	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// MARKUP WALKER
// =============================================================================

type span struct {
	text   string
	bold   bool
	italic bool
	href   string
}

// walk tokenizes markup and emits text spans in order. Unknown tags are
// dropped; block-level closers become newlines.
func walk(markup string, emit func(span)) {
	z := html.NewTokenizer(strings.NewReader(markup))

	var (
		bold, italic int
		inLink       bool
		href         string
		linkText     strings.Builder
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if inLink {
				emit(span{text: linkText.String(), href: href})
			}
			return

		case html.TextToken:
			text := string(z.Text())
			if inLink {
				linkText.WriteString(text)
				continue
			}
			emit(span{text: text, bold: bold > 0, italic: italic > 0})

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "strong", "b":
				bold++
			case "em", "i":
				italic++
			case "br":
				emit(span{text: "\n"})
			case "ul", "ol":
				emit(span{text: "\n"})
			case "li":
				emit(span{text: "• "})
			case "a":
				inLink = true
				href = ""
				linkText.Reset()
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "href" {
						href = string(val)
					}
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "strong", "b":
				if bold > 0 {
					bold--
				}
			case "em", "i":
				if italic > 0 {
					italic--
				}
			case "p", "div", "li", "ul", "ol", "tr", "h1", "h2", "h3", "h4":
				emit(span{text: "\n"})
			case "a":
				if inLink {
					text := linkText.String()
					if href == "" {
						emit(span{text: text, bold: bold > 0, italic: italic > 0})
					} else {
						emit(span{text: text, href: href})
					}
					inLink = false
				}
			}
		}
	}
}
