// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// helpCache keeps the last rendered help so resizing is the only trigger
// for a new glamour pass.
type helpCache struct {
	width int
	dark  bool
	out   string
}

// HelpMarkdown returns the help text as Markdown.
func HelpMarkdown(keys KeyMap, maxLength int) string {
	var b strings.Builder
	b.WriteString("# Ajuda do AgendeID\n\n")
	b.WriteString("Converse com o assistente para agendar, consultar e cancelar atendimentos.\n\n")

	b.WriteString("## Atalhos\n\n")
	b.WriteString("| Tecla | Ação |\n|---|---|\n")
	for _, group := range keys.FullHelp() {
		for _, k := range group {
			h := k.Help()
			b.WriteString("| `" + h.Key + "` | " + h.Desc + " |\n")
		}
	}

	b.WriteString("\n## Dicas\n\n")
	b.WriteString("- Digite **cadastro** para criar sua conta ou **login** para entrar.\n")
	b.WriteString("- Quando a resposta trouxer opções numeradas, envie o número da opção.\n")
	b.WriteString("- O painel lateral mostra os dados já informados durante o cadastro ou login.\n")
	fmt.Fprintf(&b, "- Mensagens têm no máximo %d caracteres.\n", maxLength)
	return b.String()
}

// RenderHelp renders the help Markdown for a terminal of width columns.
// It falls back to the raw Markdown when glamour fails.
func RenderHelp(keys KeyMap, maxLength, width int, dark bool) string {
	style := "light"
	if dark {
		style = "dark"
	}
	md := HelpMarkdown(keys, maxLength)
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

func (m Model) renderHelp() string {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	if m.help.out == "" || m.help.width != width || m.help.dark != m.theme.IsDark {
		m.help.out = RenderHelp(m.keyMap, m.maxLength, width, m.theme.IsDark)
		m.help.width = width
		m.help.dark = m.theme.IsDark
	}
	return m.theme.HelpBox.
		Width(m.width - 2).
		Height(m.viewport.Height - 2).
		MaxHeight(m.viewport.Height).
		Render(strings.TrimSpace(m.help.out))
}
