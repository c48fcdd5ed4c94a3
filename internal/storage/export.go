// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/agendeid-chat/internal/format"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/util"
)

// ExportJSON writes tr as indented JSON. Bot entries keep their sanitized text.
func ExportJSON(tr *Transcript, path string) error {
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return util.AtomicWriteFile(path, append(data, '\n'), 0600)
}

// ExportMarkdown writes tr as a Markdown document.
func ExportMarkdown(tr *Transcript, path string) error {
	return util.AtomicWriteFile(path, []byte(Markdown(tr)), 0600)
}

// Markdown renders tr as Markdown. Bot text is reduced to plain text.
func Markdown(tr *Transcript) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Conversa %s\n\n", tr.ShortID())
	fmt.Fprintf(&b, "- Página: `%s`\n", tr.Route)
	fmt.Fprintf(&b, "- Início: %s\n", tr.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Mensagens: %d\n", len(tr.Entries))

	for _, msg := range tr.Entries {
		fmt.Fprintf(&b, "\n### %s · %s\n\n", msg.Role.DisplayName(), msg.Timestamp.Format("15:04:05"))
		b.WriteString(EntryText(msg))
		b.WriteString("\n")
		if msg.Reply != nil && len(msg.Reply.Fields) > 0 {
			b.WriteString("\n")
			for _, key := range sortedKeys(msg.Reply.Fields) {
				fmt.Fprintf(&b, "- `%s`: %s\n", key, msg.Reply.Fields[key])
			}
		}
	}
	return b.String()
}

// EntryText returns the readable text of a recorded entry.
func EntryText(msg *model.Message) string {
	if msg.Role == model.RoleUser {
		return msg.Text
	}
	return format.Plain(format.Format(msg.Text))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
