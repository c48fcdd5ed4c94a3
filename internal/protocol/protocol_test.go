// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agendeid-chat/internal/model"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestParseCommand(t *testing.T) {
	tests := []struct {
		sentinel string
		want     Command
	}{
		{SentinelRegistrationClient, RegistrationSuccess{Role: model.UserClient}},
		{SentinelRegistrationStaff, RegistrationSuccess{Role: model.UserStaff}},
		{SentinelLoginClient, LoginSuccess{Role: model.UserClient}},
		{SentinelLoginStaff, LoginSuccess{Role: model.UserStaff}},
		{SentinelLogout, Logout{}},
		{SentinelValidationError, ValidationError{}},
		{SentinelSessionExpired, SessionExpired{}},
		{"__reiniciar__", UnknownCommand{Raw: "__reiniciar__"}},
	}

	for _, tc := range tests {
		t.Run(tc.sentinel, func(t *testing.T) {
			got := ParseCommand(tc.sentinel)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.sentinel, got.Sentinel())
		})
	}
}

func TestUnknownCommand_Text(t *testing.T) {
	assert.Equal(t, "reiniciar", UnknownCommand{Raw: "__reiniciar__"}.Text())
	assert.Equal(t, "ab", UnknownCommand{Raw: "__a__b__"}.Text())
}

// =============================================================================
// CLASSIFY TESTS
// =============================================================================

func TestClassify_SentinelShortCircuits(t *testing.T) {
	res, err := Classify(decode(t, `{"resposta": "__login_sucesso_funcionario__", "parametros": {"email": "preenchido"}}`))
	require.NoError(t, err)

	assert.Nil(t, res.Reply)
	assert.Equal(t, LoginSuccess{Role: model.UserStaff}, res.Command)
}

func TestClassify_BareStringSentinel(t *testing.T) {
	res, err := Classify("__logout__")
	require.NoError(t, err)
	assert.Equal(t, Logout{}, res.Command)
}

func TestClassify_BareString(t *testing.T) {
	res, err := Classify("Olá <mundo>")
	require.NoError(t, err)
	require.NotNil(t, res.Reply)
	assert.Equal(t, "Olá &lt;mundo&gt;", res.Reply.Text)
	assert.Equal(t, "Olá <mundo>", res.Reply.RawText)
	assert.Equal(t, KindText, res.Reply.Kind)
}

func TestClassify_PortugueseReply(t *testing.T) {
	res, err := Classify(decode(t, `{
		"resposta": "Qual é o seu nome?\nDigite completo.",
		"parametros": {"nome": "coletando", "email": "pendente"},
		"tipo": "texto"
	}`))
	require.NoError(t, err)

	r := res.Reply
	require.NotNil(t, r)
	assert.Equal(t, "Qual é o seu nome?<br>Digite completo.", r.Text)
	assert.Equal(t, StatusCollecting, r.Fields["nome"])
	assert.Equal(t, StatusPending, r.Fields["email"])
	assert.Equal(t, "coletando", r.RawFields["nome"])
	assert.Equal(t, KindText, r.Kind)
}

func TestClassify_EnglishReply(t *testing.T) {
	res, err := Classify(decode(t, `{
		"response": "Welcome",
		"fields": {"email": "filled", "senha": "error"},
		"kind": "success",
		"redirect": "/painel_cliente",
		"logout": true
	}`))
	require.NoError(t, err)

	r := res.Reply
	require.NotNil(t, r)
	assert.Equal(t, "Welcome", r.Text)
	assert.Equal(t, StatusFilled, r.Fields["email"])
	assert.Equal(t, StatusError, r.Fields["senha"])
	assert.Equal(t, KindSuccess, r.Kind)
	assert.Equal(t, "/painel_cliente", r.Redirect)
	assert.True(t, r.Logout)
}

func TestClassify_ResponseBeforeMessage(t *testing.T) {
	res, err := Classify(map[string]any{"message": "segundo", "response": "primeiro"})
	require.NoError(t, err)
	assert.Equal(t, "primeiro", res.Reply.Text)

	res, err = Classify(map[string]any{"resposta": "", "mensagem": "fallback"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Reply.Text)
}

func TestClassify_UnknownFormatLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	res, err := NewClassifier(logger).Classify(map[string]any{"foo": "bar"})
	require.NoError(t, err)

	assert.Equal(t, UnknownFormatText, res.Reply.Text)
	assert.Contains(t, buf.String(), "reply_unknown_format")
}

func TestClassify_Malformed(t *testing.T) {
	for _, payload := range []any{nil, 42.0, []any{"a"}, true} {
		_, err := Classify(payload)
		var mErr *MalformedResponseError
		require.Error(t, err)
		assert.True(t, errors.As(err, &mErr), "payload %v", payload)
	}
}

func TestClassify_UnknownStatusIsPending(t *testing.T) {
	res, err := Classify(map[string]any{"resposta": "ok", "parametros": map[string]any{"telefone": "???"}})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Reply.Fields["telefone"])
}

func TestClassify_HTMLKind(t *testing.T) {
	res, err := Classify(map[string]any{
		"mensagem": `<b>Agenda</b><script>x()</script>`,
		"tipo":     "html",
	})
	require.NoError(t, err)

	r := res.Reply
	assert.Equal(t, KindHTML, r.Kind)
	assert.Equal(t, "<b>Agenda</b>", r.HTML)
	assert.Contains(t, r.Text, "&lt;b&gt;")
}

func TestClassify_Options(t *testing.T) {
	res, err := Classify(decode(t, `{
		"resposta": "Escolha um local",
		"tipo": "opcoes",
		"opcoes": ["Centro", {"texto": "Zona Sul", "valor": "local 2"}, {"foo": 1}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []Option{
		{Label: "Centro", Value: "Centro"},
		{Label: "Zona Sul", Value: "local 2"},
	}, res.Reply.Options)
}

func TestClassify_Form(t *testing.T) {
	res, err := Classify(decode(t, `{
		"resposta": "Preencha",
		"tipo": "formulario",
		"campos": ["cpf", {"nome": "data", "rotulo": "Data", "tipo": "date"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []FormField{
		{Name: "cpf", Label: "CPF", Type: "text"},
		{Name: "data", Label: "Data", Type: "date"},
	}, res.Reply.Form)
}

// =============================================================================
// VOCABULARY TESTS
// =============================================================================

func TestFieldVocabulary(t *testing.T) {
	assert.Len(t, RegistrationFields(), 7)
	assert.Equal(t, []string{"email", "senha"}, LoginFields())
	assert.Equal(t, "Nome da Mãe", FieldLabel("nome_mae"))
	assert.Equal(t, "apelido", FieldLabel("apelido"))
}

func TestFieldStatus_IconsAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []FieldStatus{StatusPending, StatusCollecting, StatusFilled, StatusError} {
		assert.False(t, seen[s.Icon()], "duplicate icon %s", s.Icon())
		seen[s.Icon()] = true
		assert.Equal(t, s, ParseFieldStatus(s.String()))
	}
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindOptions, ParseKind("opcoes"))
	assert.Equal(t, KindForm, ParseKind("formulario"))
	assert.Equal(t, KindError, ParseKind("erro"))
	assert.Equal(t, KindSuccess, ParseKind("sucesso"))
	assert.Equal(t, KindText, ParseKind(""))
	assert.Equal(t, KindText, ParseKind("texto"))
}
