// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import "strings"

// =============================================================================
// FIELD STATUS
// =============================================================================

// FieldStatus is the completion state of one datum collected during a flow.
type FieldStatus int

const (
	StatusPending FieldStatus = iota
	StatusCollecting
	StatusFilled
	StatusError
)

// ParseFieldStatus maps a wire value to a status. Unknown values are Pending.
func ParseFieldStatus(s string) FieldStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "filled", "preenchido":
		return StatusFilled
	case "error", "erro":
		return StatusError
	case "collecting", "coletando":
		return StatusCollecting
	default:
		return StatusPending
	}
}

// String returns the English wire value.
func (s FieldStatus) String() string {
	switch s {
	case StatusCollecting:
		return "collecting"
	case StatusFilled:
		return "filled"
	case StatusError:
		return "error"
	default:
		return "pending"
	}
}

// Icon returns the checklist icon for the status.
func (s FieldStatus) Icon() string {
	switch s {
	case StatusCollecting:
		return "🔄"
	case StatusFilled:
		return "✅"
	case StatusError:
		return "❌"
	default:
		return "⏳"
	}
}

// Label returns the checklist caption for the status.
func (s FieldStatus) Label() string {
	switch s {
	case StatusCollecting:
		return "Coletando"
	case StatusFilled:
		return "Preenchido"
	case StatusError:
		return "Erro"
	default:
		return "Pendente"
	}
}

// =============================================================================
// FIELD VOCABULARY
// =============================================================================

// Field names used by the registration and login flows.
const (
	FieldName        = "nome"
	FieldSex         = "sexo"
	FieldNationality = "nacionalidade"
	FieldBirthDate   = "data_nascimento"
	FieldMotherName  = "nome_mae"
	FieldCPF         = "cpf"
	FieldEmail       = "email"
	FieldPassword    = "senha"
	FieldPhone       = "telefone"
	FieldAccountType = "tipo_usuario"
)

// RegistrationFields returns the registration checklist in display order.
func RegistrationFields() []string {
	return []string{FieldName, FieldSex, FieldNationality, FieldBirthDate, FieldMotherName, FieldCPF, FieldEmail}
}

// LoginFields returns the login checklist in display order.
func LoginFields() []string {
	return []string{FieldEmail, FieldPassword}
}

var fieldLabels = map[string]string{
	FieldName:        "Nome",
	FieldSex:         "Sexo",
	FieldNationality: "Nacionalidade",
	FieldBirthDate:   "Data de Nascimento",
	FieldMotherName:  "Nome da Mãe",
	FieldCPF:         "CPF",
	FieldEmail:       "Email",
	FieldPassword:    "Senha",
	FieldPhone:       "Telefone",
	FieldAccountType: "Tipo de Usuário",
}

// FieldLabel returns the display name for a field. Unknown keys are shown raw.
func FieldLabel(name string) string {
	if label, ok := fieldLabels[name]; ok {
		return label
	}
	return name
}
