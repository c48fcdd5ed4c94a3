// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package suggest derives the quick-reply buttons shown under the chat.
package suggest

import (
	"strings"

	"github.com/jeranaias/agendeid-chat/internal/model"
)

// Suggestion is a quick reply: Label is shown, Command is submitted.
type Suggestion struct {
	Label   string
	Command string
}

// View is the slice of session state the suggestions depend on.
type View struct {
	Authenticated bool
	Role          model.UserType
}

var (
	anonymousBase = []Suggestion{
		{Label: "🔑 Login", Command: "Login"},
		{Label: "📝 Cadastro", Command: "Cadastro"},
		{Label: "❓ Ajuda", Command: "Ajuda"},
	}
	clientBase = []Suggestion{
		{Label: "📅 Agendar", Command: "Agendar atendimento"},
		{Label: "🔍 Consultar", Command: "Consultar agendamentos"},
	}
	staffBase = []Suggestion{
		{Label: "📅 Agenda", Command: "Ver agenda"},
		{Label: "✅ Confirmar", Command: "Confirmar presença"},
		{Label: "📊 Relatório", Command: "Gerar relatório"},
	}

	locations = Suggestion{Label: "📍 Locais", Command: "Ver locais disponíveis"}
	support   = Suggestion{Label: "💬 Suporte", Command: "Falar com atendente"}
	logout    = Suggestion{Label: "🚪 Sair", Command: "Logout"}
)

// Compute returns the suggestions for v after lastText was shown. The base set
// comes first in declared order, then keyword extras in check order, then
// Sair when authenticated. An empty result means the panel is hidden.
func Compute(v View, lastText string) []Suggestion {
	var out []Suggestion

	switch {
	case !v.Authenticated:
		out = append(out, anonymousBase...)
	case v.Role == model.UserClient:
		out = append(out, clientBase...)
	case v.Role == model.UserStaff:
		out = append(out, staffBase...)
	}

	lower := strings.ToLower(lastText)
	if strings.Contains(lower, "agendar") || strings.Contains(lower, "marcar") {
		out = append(out, locations)
	}
	if strings.Contains(lower, "cancelar") {
		out = append(out, support)
	}

	if v.Authenticated {
		out = append(out, logout)
	}
	return out
}
