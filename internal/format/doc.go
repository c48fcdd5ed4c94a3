// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format turns raw chat text into safe, lightly marked-up display
// content and renders that markup for terminals.
//
// The pipeline is fixed: Sanitize escapes the HTML-significant characters and
// converts newlines, then Format expands bold, italic, and bare URLs. Render
// runs both. Sanitize is not idempotent, so callers sanitize exactly once
// when text enters the system.
//
// Server payloads tagged as html never go through Sanitize; they are cleaned
// with SanitizeHTML instead.
package format
