// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"regexp"
	"strings"
)

// LineBreak is the markup emitted for a newline.
const LineBreak = "<br>"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
	urlPattern    = regexp.MustCompile(`https?://[^\s<]+`)
)

// Sanitize escapes &, <, >, " and ' and converts newlines to line breaks.
// The result is safe to embed as markup.
func Sanitize(raw string) string {
	escaped := escaper.Replace(raw)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", LineBreak)
}

// Format applies the markdown-lite transforms to already sanitized text:
// bold, then italic, then autolinks.
func Format(safe string) string {
	out := boldPattern.ReplaceAllString(safe, "<strong>$1</strong>")
	out = italicPattern.ReplaceAllString(out, "<em>$1</em>")
	return urlPattern.ReplaceAllString(out, `<a href="$0" target="_blank" rel="noopener noreferrer">$0</a>`)
}

// Render sanitizes and formats raw text.
func Render(raw string) string {
	return Format(Sanitize(raw))
}
