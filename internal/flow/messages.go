// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"strconv"

	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/transport"
)

// Fixed user-visible texts.
const (
	TextTooLong          = "Mensagem muito longa. Limite de 1000 caracteres."
	TextClassifierFailed = "❌ Erro ao processar resposta do servidor."
	TextLoginSuccess     = "Login realizado com sucesso!"
	TextLogoutSuccess    = "Logout realizado com sucesso!"
	TextValidationError  = "Erro de validação. Verifique os dados informados."
	TextSessionExpired   = "Sua sessão expirou. Faça login novamente."
	TextRedirecting      = "🔄 Redirecionando..."
	TextSessionWarning   = "Aviso: Não foi possível verificar sua sessão. Verifique sua conexão."

	TextUnreachable   = "Servidor não está respondendo. Verifique sua conexão."
	TextBadRequest    = "Dados da requisição inválidos."
	TextForbidden     = "Acesso negado. Faça login novamente."
	TextServerError   = "Erro interno do servidor."
	TextRateLimited   = "Muitas requisições. Aguarde um pouco."
	TextCommunication = "Erro de comunicação. Tente novamente em alguns segundos."
)

// registrationText returns the success message for a registration.
func registrationText(role model.UserType) string {
	if role == model.UserStaff {
		return "Cadastro de funcionário realizado com sucesso!"
	}
	return "Cadastro de cliente realizado com sucesso!"
}

// countdownText announces the seconds left before a redirect.
func countdownText(n int) string {
	unit := "segundo"
	if n > 1 {
		unit = "segundos"
	}
	return "🔄 Redirecionando em " + strconv.Itoa(n) + " " + unit + "..."
}

// failureText picks the message for a transport failure.
func failureText(err error) string {
	switch transport.TypeOf(err) {
	case transport.ErrTypeUnreachable, transport.ErrTypeTimeout:
		return TextUnreachable
	case transport.ErrTypeBadRequest:
		return TextBadRequest
	case transport.ErrTypeForbidden:
		return TextForbidden
	case transport.ErrTypeServer:
		return TextServerError
	case transport.ErrTypeRateLimited:
		return TextRateLimited
	default:
		return TextCommunication
	}
}
