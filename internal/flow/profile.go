// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"strings"

	"github.com/jeranaias/agendeid-chat/internal/model"
)

// Routes of the AgendeID pages.
const (
	RouteHome   = "/"
	RouteClient = "/painel_cliente"
	RouteStaff  = "/painel_funcionario"
)

// Profile parameterizes the Engine for one page.
type Profile struct {
	Name  string
	Route string

	// Welcome is trusted markup shown at start and after ClearChat.
	Welcome string

	// DetectFlows enables the registration/login keyword pre-scan.
	DetectFlows bool

	// RequiredRole is the role a session must have to stay on the page.
	// UserNone means the page is public.
	RequiredRole model.UserType

	// CommandHints answers incomplete staff commands locally.
	CommandHints bool
}

// Protected reports whether the page requires a logged-in role.
func (p Profile) Protected() bool {
	return p.RequiredRole != model.UserNone
}

// PublicProfile is the anonymous entry page.
func PublicProfile() Profile {
	return Profile{
		Name:        "public",
		Route:       RouteHome,
		DetectFlows: true,
		Welcome: "<strong>Olá! Bem-vindo ao AgendeID!</strong><br><br>" +
			"Para começar, digite:<br>" +
			"• <strong>\"Login\"</strong> - se você já tem cadastro<br>" +
			"• <strong>\"Cadastro\"</strong> - para criar uma nova conta<br><br>" +
			"Estou aqui para ajudar com agendamentos de identidade! 😊",
	}
}

// ClientProfile is the client dashboard.
func ClientProfile() Profile {
	return Profile{
		Name:         "client",
		Route:        RouteClient,
		RequiredRole: model.UserClient,
		Welcome: "<strong>Bem-vindo(a) ao painel do cliente!</strong><br><br>" +
			"Como posso ajudar você hoje?<br>" +
			"• Use as sugestões abaixo ou digite seu comando",
	}
}

// StaffProfile is the staff dashboard.
func StaffProfile() Profile {
	return Profile{
		Name:         "staff",
		Route:        RouteStaff,
		RequiredRole: model.UserStaff,
		Welcome: "<strong>Bem-vindo ao painel do funcionário!</strong><br><br>" +
			"Comandos disponíveis:<br>" +
			"• \"ver agenda\" - Visualizar agenda do dia<br>" +
			"• \"confirmar presença [email]\" - Confirmar cliente<br>" +
			"• \"gerar relatório\" - Relatório de atendimentos<br>" +
			"• \"buscar cliente [CPF/email]\" - Consultar cliente<br>" +
			"• \"logout\" - Sair do sistema",
	}
}

// ProfileFor resolves a profile by name ("public", "client", "staff", or
// their Portuguese names) or by route.
func ProfileFor(nameOrRoute string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(nameOrRoute)) {
	case "", "public", "publico", "público", RouteHome:
		return PublicProfile(), true
	case "client", "cliente", RouteClient:
		return ClientProfile(), true
	case "staff", "funcionario", "funcionário", RouteStaff:
		return StaffProfile(), true
	default:
		return Profile{}, false
	}
}

// HomeRoute returns the dashboard route for role.
func HomeRoute(role model.UserType) string {
	switch role {
	case model.UserClient:
		return RouteClient
	case model.UserStaff:
		return RouteStaff
	default:
		return RouteHome
	}
}
