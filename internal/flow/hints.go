// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"regexp"
	"strings"
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{11}$|^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const (
	hintConfirm = "Use: \"confirmar presença [email]\" ou \"confirmar presença [ID]\"\n\n" +
		"Exemplo: confirmar presença joao@email.com"
	hintSearch = "Use: \"buscar cliente [CPF]\" ou \"buscar cliente [email]\"\n\n" +
		"Exemplo: buscar cliente 123.456.789-00"
	hintSearchFormat = "Formato inválido!\n\nUse CPF (11 dígitos) ou email válido:\n" +
		"• \"buscar cliente 12345678901\"\n" +
		"• \"buscar cliente usuario@email.com\""
)

// commandHint returns a usage hint for an incomplete or malformed staff
// command, or "" when text should be sent as is.
func commandHint(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch lower {
	case "confirmar", "confirmar presença":
		return hintConfirm
	case "buscar", "buscar cliente":
		return hintSearch
	}

	if param, ok := strings.CutPrefix(lower, "buscar cliente "); ok {
		param = strings.TrimSpace(param)
		if !cpfPattern.MatchString(param) && !emailPattern.MatchString(param) {
			return hintSearchFormat
		}
	}
	return ""
}
