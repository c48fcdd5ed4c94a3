// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import "strings"

// =============================================================================
// KIND
// =============================================================================

// Kind tags how a reply should be presented.
type Kind int

const (
	KindText Kind = iota
	KindHTML
	KindOptions
	KindForm
	KindError
	KindSuccess
)

// ParseKind maps a wire tag to a Kind. Empty or unknown tags are KindText.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return KindHTML
	case "options", "opcoes", "opções":
		return KindOptions
	case "form", "formulario", "formulário":
		return KindForm
	case "error", "erro":
		return KindError
	case "success", "sucesso":
		return KindSuccess
	default:
		return KindText
	}
}

// String returns the English wire tag.
func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindOptions:
		return "options"
	case KindForm:
		return "form"
	case KindError:
		return "error"
	case KindSuccess:
		return "success"
	default:
		return "text"
	}
}

// =============================================================================
// SERVER REPLY
// =============================================================================

// Option is one entry of an options payload.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormField is one entry of a form payload.
type FormField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// ServerReply is a classified, displayable reply.
type ServerReply struct {
	// Text is the sanitized display text. RawText is what the server sent.
	Text    string
	RawText string

	// Fields holds the status updates keyed by field name. RawFields keeps
	// the wire values for history.
	Fields    map[string]FieldStatus
	RawFields map[string]string

	Kind     Kind
	Redirect string
	Logout   bool

	// HTML is set for KindHTML replies, already cleaned with SanitizeHTML.
	HTML    string
	Options []Option
	Form    []FormField
}

// HasFields reports whether the reply carries any status update.
func (r *ServerReply) HasFields() bool {
	return r != nil && len(r.Fields) > 0
}
