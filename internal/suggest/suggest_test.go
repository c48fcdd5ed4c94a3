// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/agendeid-chat/internal/model"
)

func commands(s []Suggestion) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.Command
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		view View
		last string
		want []string
	}{
		{
			name: "anonymous",
			view: View{},
			last: "Olá!",
			want: []string{"Login", "Cadastro", "Ajuda"},
		},
		{
			name: "client",
			view: View{Authenticated: true, Role: model.UserClient},
			last: "Bem-vindo",
			want: []string{"Agendar atendimento", "Consultar agendamentos", "Logout"},
		},
		{
			name: "staff",
			view: View{Authenticated: true, Role: model.UserStaff},
			last: "",
			want: []string{"Ver agenda", "Confirmar presença", "Gerar relatório", "Logout"},
		},
		{
			name: "keyword extras keep order and logout stays last",
			view: View{Authenticated: true, Role: model.UserClient},
			last: "Deseja CANCELAR ou Marcar outro horário?",
			want: []string{"Agendar atendimento", "Consultar agendamentos", "Ver locais disponíveis", "Falar com atendente", "Logout"},
		},
		{
			name: "anonymous with agendar",
			view: View{},
			last: "Para agendar, faça login.",
			want: []string{"Login", "Cadastro", "Ajuda", "Ver locais disponíveis"},
		},
		{
			name: "authenticated without role",
			view: View{Authenticated: true},
			last: "",
			want: []string{"Logout"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, commands(Compute(tc.view, tc.last)))
		})
	}
}

func TestCompute_BaseSizes(t *testing.T) {
	assert.Len(t, Compute(View{}, ""), 3)
	assert.Len(t, Compute(View{Authenticated: true, Role: model.UserClient}, ""), 3)
	assert.Len(t, Compute(View{Authenticated: true, Role: model.UserStaff}, ""), 4)
}

func TestCompute_DoesNotShareBackingArrays(t *testing.T) {
	a := Compute(View{}, "")
	a[0].Label = "changed"
	assert.Equal(t, "🔑 Login", Compute(View{}, "")[0].Label)
}
