// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"sort"

	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
	"github.com/jeranaias/agendeid-chat/internal/suggest"
	"github.com/jeranaias/agendeid-chat/internal/transport"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Transport sends one chat message and returns the decoded reply payload.
type Transport interface {
	Send(ctx context.Context, text string) (any, error)
}

// SessionChecker queries the backend about the login session and health.
type SessionChecker interface {
	VerifySession(ctx context.Context) (transport.SessionInfo, error)
	Ping(ctx context.Context) error
}

// Recorder receives every history append.
type Recorder interface {
	Record(msg *model.Message) error
}

// =============================================================================
// PRESENTATION SINK
// =============================================================================

// Connectivity is the state of the connection indicator.
type Connectivity int

const (
	Connected Connectivity = iota
	Disconnected
	Degraded
)

// String returns the indicator caption.
func (c Connectivity) String() string {
	switch c {
	case Disconnected:
		return "Desconectado"
	case Degraded:
		return "Conexão instável"
	default:
		return "Conectado"
	}
}

// Icon returns the indicator dot.
func (c Connectivity) Icon() string {
	switch c {
	case Disconnected:
		return "🔴"
	case Degraded:
		return "🟠"
	default:
		return "🟢"
	}
}

// Style tags a message bubble.
type Style int

const (
	StyleNormal Style = iota
	StyleError
	StyleSuccess
)

// ChecklistItem is one row of the field checklist.
type ChecklistItem struct {
	Field  string
	Label  string
	Status protocol.FieldStatus
}

// Attachment is a typed payload shown below a bot message.
type Attachment struct {
	Kind    protocol.Kind
	Options []protocol.Option
	Form    []protocol.FormField
}

// Sink is the presentation surface the Engine drives. Markup passed to
// AppendMessage is already safe (see package format).
type Sink interface {
	AppendMessage(role model.Role, markup string, style Style)
	ShowChecklist(title string, items []ChecklistItem)
	ShowSuggestions(suggestions []suggest.Suggestion)
	ShowAttachment(a Attachment)
	SetConnectivity(c Connectivity)
	SetBusy(busy bool)
	Navigate(route string)
	Clear()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
