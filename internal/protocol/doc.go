// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol interprets AgendeID server replies.
//
// A reply is either a sentinel command (a double-underscore delimited string
// such as "__logout__") or a displayable ServerReply carrying text, per-field
// status updates, a kind tag, and an optional redirect. Classify resolves a
// decoded JSON payload into exactly one of those, or fails with a
// MalformedResponseError.
//
// Both the English keys ("response", "fields", "kind") and the Portuguese keys
// used by the AgendeID backend ("resposta", "parametros", "tipo") are accepted.
//
// # Usage
//
//	res, err := protocol.Classify(payload)
//	if err != nil {
//	    // malformed
//	}
//	if res.Command != nil {
//	    // session-level event
//	}
package protocol
