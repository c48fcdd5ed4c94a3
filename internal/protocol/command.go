// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"strings"

	"github.com/jeranaias/agendeid-chat/internal/model"
)

// SentinelPrefix marks a reply text as a command rather than displayable text.
const SentinelPrefix = "__"

// Known sentinel strings.
const (
	SentinelRegistrationClient = "__cadastro_sucesso_cliente__"
	SentinelRegistrationStaff  = "__cadastro_sucesso_funcionario__"
	SentinelLoginClient        = "__login_sucesso_cliente__"
	SentinelLoginStaff         = "__login_sucesso_funcionario__"
	SentinelLogout             = "__logout__"
	SentinelValidationError    = "__erro_validacao__"
	SentinelSessionExpired     = "__sessao_expirada__"
)

// Command is a session-level event decoded from a sentinel. The set of
// implementations is closed.
type Command interface {
	// Sentinel returns the wire string the command was decoded from.
	Sentinel() string
	command()
}

// RegistrationSuccess reports a completed registration for Role.
type RegistrationSuccess struct{ Role model.UserType }

// LoginSuccess reports a completed login for Role.
type LoginSuccess struct{ Role model.UserType }

// Logout ends the session.
type Logout struct{}

// ValidationError reports that the submitted data was rejected.
type ValidationError struct{}

// SessionExpired reports that the server dropped the session.
type SessionExpired struct{}

// UnknownCommand is any sentinel outside the known set.
type UnknownCommand struct{ Raw string }

func (c RegistrationSuccess) Sentinel() string {
	if c.Role == model.UserStaff {
		return SentinelRegistrationStaff
	}
	return SentinelRegistrationClient
}

func (c LoginSuccess) Sentinel() string {
	if c.Role == model.UserStaff {
		return SentinelLoginStaff
	}
	return SentinelLoginClient
}

func (Logout) Sentinel() string          { return SentinelLogout }
func (ValidationError) Sentinel() string { return SentinelValidationError }
func (SessionExpired) Sentinel() string  { return SentinelSessionExpired }

func (c UnknownCommand) Sentinel() string { return c.Raw }

// Text returns the sentinel with every "__" delimiter removed.
func (c UnknownCommand) Text() string {
	return strings.ReplaceAll(c.Raw, SentinelPrefix, "")
}

func (RegistrationSuccess) command() {}
func (LoginSuccess) command()        {}
func (Logout) command()              {}
func (ValidationError) command()     {}
func (SessionExpired) command()      {}
func (UnknownCommand) command()      {}

// IsSentinel reports whether text is a command rather than display text.
func IsSentinel(text string) bool {
	return strings.HasPrefix(text, SentinelPrefix)
}

// ParseCommand decodes a sentinel. Strings outside the known set yield
// UnknownCommand.
func ParseCommand(sentinel string) Command {
	switch sentinel {
	case SentinelRegistrationClient:
		return RegistrationSuccess{Role: model.UserClient}
	case SentinelRegistrationStaff:
		return RegistrationSuccess{Role: model.UserStaff}
	case SentinelLoginClient:
		return LoginSuccess{Role: model.UserClient}
	case SentinelLoginStaff:
		return LoginSuccess{Role: model.UserStaff}
	case SentinelLogout:
		return Logout{}
	case SentinelValidationError:
		return ValidationError{}
	case SentinelSessionExpired:
		return SessionExpired{}
	default:
		return UnknownCommand{Raw: sentinel}
	}
}
