// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/jeranaias/agendeid-chat/internal/format"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/util"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// htmlEntry is one message as the template sees it.
type htmlEntry struct {
	Class  string
	Author string
	Time   string
	Body   template.HTML
	Fields [][2]string
}

var htmlTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta name="generator" content="agendeid">
<title>Conversa {{.ID}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; background: #f8fafc; color: #1e293b; margin: 0; }
  .container { max-width: 760px; margin: 0 auto; padding: 24px; }
  header h1 { color: #6366f1; font-size: 1.4em; margin-bottom: 4px; }
  .meta { color: #64748b; font-size: 0.9em; }
  .message { margin: 14px 0; padding: 10px 14px; border-radius: 12px; max-width: 80%; }
  .user { background: #6366f1; color: #fff; margin-left: auto; }
  .bot { background: #fff; border: 1px solid #e2e8f0; }
  .system { background: #f1f5f9; color: #475569; font-style: italic; }
  .author { font-weight: bold; font-size: 0.85em; }
  .time { float: right; font-size: 0.8em; opacity: 0.7; }
  .fields { margin: 8px 0 0; padding-left: 18px; font-size: 0.85em; }
  a { color: inherit; }
</style>
</head>
<body>
<div class="container">
<header>
  <h1>Conversa {{.ID}}</h1>
  <div class="meta">Página <code>{{.Route}}</code> · início {{.Started}} · {{len .Entries}} mensagens</div>
</header>
<main>
{{range .Entries}}  <div class="message {{.Class}}">
    <div><span class="author">{{.Author}}</span><span class="time">{{.Time}}</span></div>
    <div class="body">{{.Body}}</div>
{{- if .Fields}}
    <ul class="fields">{{range .Fields}}<li><code>{{index . 0}}</code>: {{index . 1}}</li>{{end}}</ul>
{{- end}}
  </div>
{{end}}</main>
</div>
</body>
</html>
`))

// HTML renders tr as a standalone page. Message bodies pass through the
// same sanitizer as server html payloads.
func HTML(tr *Transcript) (string, error) {
	entries := make([]htmlEntry, len(tr.Entries))
	for i, msg := range tr.Entries {
		entries[i] = htmlEntry{
			Class:  htmlClass(msg.Role),
			Author: msg.Role.DisplayName(),
			Time:   msg.Timestamp.Format("15:04:05"),
			Body:   template.HTML(format.SanitizeHTML(entryMarkup(msg))),
		}
		if msg.Reply != nil {
			for _, key := range sortedKeys(msg.Reply.Fields) {
				entries[i].Fields = append(entries[i].Fields, [2]string{key, msg.Reply.Fields[key]})
			}
		}
	}

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		ID      string
		Route   string
		Started string
		Entries []htmlEntry
	}{
		ID:      tr.ShortID(),
		Route:   tr.Route,
		Started: tr.StartedAt.Format(time.DateTime),
		Entries: entries,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render transcript: %w", err)
	}
	return buf.String(), nil
}

// ExportHTML writes tr as an HTML page.
func ExportHTML(tr *Transcript, path string) error {
	page, err := HTML(tr)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, []byte(page), 0600)
}

// entryMarkup returns the markup of a recorded entry. User text is stored
// raw; bot text is stored sanitized.
func entryMarkup(msg *model.Message) string {
	if msg.Role == model.RoleUser {
		return format.Render(msg.Text)
	}
	return format.Format(msg.Text)
}

func htmlClass(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "user"
	case model.RoleSystem:
		return "system"
	default:
		return "bot"
	}
}
