// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// StateStart is the conversation state of a fresh visitor.
const StateStart = "inicio"

// messagePlaceholder is replaced by the visitor's message in session user
// values, so a script can remember the email typed during login.
const messagePlaceholder = "$mensagem"

// ============================================================================
// SCRIPT TYPES
// ============================================================================

// Script is an ordered list of reply rules. The first rule whose state and
// pattern match answers the message; Fallback answers everything else.
type Script struct {
	Name     string `yaml:"name"`
	Rules    []Rule `yaml:"rules"`
	Fallback Reply  `yaml:"fallback"`
}

// Rule matches a lowercased message.
type Rule struct {
	Name string `yaml:"name"`

	// When lists the conversation states the rule applies in. Empty means
	// any state.
	When []string `yaml:"when,omitempty"`

	// Contains matches when any substring occurs in the message.
	Contains []string `yaml:"contains,omitempty"`

	// Regex matches against the whole lowercased message.
	Regex string `yaml:"regex,omitempty"`

	Reply Reply `yaml:"reply"`

	re *regexp.Regexp
}

// Reply is the payload a rule sends back.
type Reply struct {
	Resposta   string            `yaml:"resposta"`
	Parametros map[string]string `yaml:"parametros,omitempty"`
	Tipo       string            `yaml:"tipo,omitempty"`
	Opcoes     []string          `yaml:"opcoes,omitempty"`
	Redirect   string            `yaml:"redirect,omitempty"`
	Logout     bool              `yaml:"logout,omitempty"`

	// Plain sends resposta as a bare JSON string instead of an object.
	Plain bool `yaml:"plain,omitempty"`

	// Status overrides the HTTP status (default 200).
	Status int `yaml:"status,omitempty"`

	// Then moves the visitor to another state. Empty keeps the current one.
	Then string `yaml:"then,omitempty"`

	Session *SessionChange `yaml:"session,omitempty"`
}

// SessionChange mutates what /verificar-sessao reports for the visitor.
type SessionChange struct {
	// Login marks the visitor as logged in with the given role
	// ("cliente" or "funcionario").
	Login string `yaml:"login,omitempty"`

	// User sets the reported user name. "$mensagem" expands to the message.
	User string `yaml:"user,omitempty"`

	Logout bool `yaml:"logout,omitempty"`
}

// ============================================================================
// LOADING
// ============================================================================

// ParseScript decodes and compiles a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a YAML script from disk.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes the script back to YAML.
func (s *Script) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Script) compile() error {
	if s.Fallback.Resposta == "" && !s.Fallback.Plain {
		s.Fallback.Resposta = defaultFallback
	}
	for i := range s.Rules {
		r := &s.Rules[i]
		if len(r.Contains) == 0 && r.Regex == "" {
			return fmt.Errorf("rule %d (%s): needs contains or regex", i, r.Name)
		}
		for j, c := range r.Contains {
			r.Contains[j] = strings.ToLower(c)
		}
		if r.Regex != "" {
			re, err := regexp.Compile(r.Regex)
			if err != nil {
				return fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
			}
			r.re = re
		}
		if l := r.Reply.Session; l != nil && l.Login != "" && l.Login != "cliente" && l.Login != "funcionario" {
			return fmt.Errorf("rule %d (%s): unknown login role %q", i, r.Name, l.Login)
		}
	}
	return nil
}

// ============================================================================
// MATCHING
// ============================================================================

// Match returns the reply for message in state, and the matching rule's name
// ("" for the fallback).
func (s *Script) Match(state, message string) (Reply, string) {
	msg := strings.ToLower(strings.TrimSpace(message))
	for i := range s.Rules {
		r := &s.Rules[i]
		if r.applies(state) && r.matches(msg) {
			return r.Reply, r.Name
		}
	}
	return s.Fallback, ""
}

func (r *Rule) applies(state string) bool {
	if len(r.When) == 0 {
		return true
	}
	for _, w := range r.When {
		if w == state {
			return true
		}
	}
	return false
}

func (r *Rule) matches(msg string) bool {
	for _, c := range r.Contains {
		if strings.Contains(msg, c) {
			return true
		}
	}
	return r.re != nil && r.re.MatchString(msg)
}

// Payload builds the JSON body for the reply.
func (r Reply) Payload() any {
	if r.Plain {
		return r.Resposta
	}
	body := map[string]any{"resposta": r.Resposta}
	if len(r.Parametros) > 0 {
		body["parametros"] = r.Parametros
	}
	if r.Tipo != "" {
		body["tipo"] = r.Tipo
	}
	if len(r.Opcoes) > 0 {
		body["opcoes"] = r.Opcoes
	}
	if r.Redirect != "" {
		body["redirect"] = r.Redirect
	}
	if r.Logout {
		body["logout"] = true
	}
	return body
}

// ============================================================================
// DEFAULT SCRIPT
// ============================================================================

const defaultFallback = "Não entendi. Digite **Login**, **Cadastro** ou **Ajuda**."

// defaultScriptYAML walks through login and client registration.
const defaultScriptYAML = `
name: padrao
rules:
  - name: sair
    contains: [sair, logout]
    reply:
      resposta: Você saiu da sua conta.
      logout: true
      then: inicio
      session: {logout: true}

  - name: ajuda
    contains: [ajuda, help]
    reply:
      resposta: |-
        Posso ajudar com:
        - **Login** para entrar na sua conta
        - **Cadastro** para criar uma conta
        Dúvidas: https://agendeid.example.com/ajuda
      then: inicio

  - name: erro_simulado
    contains: [simular erro]
    reply:
      resposta: falha interna
      status: 500

  - name: cancelar
    contains: [cancelar]
    reply:
      resposta: Tudo bem, operação cancelada.
      then: inicio

  - name: login
    when: [inicio]
    contains: [login, entrar]
    reply:
      resposta: Informe seu email para entrar.
      parametros: {email: coletando, senha: pendente}
      then: login_email

  - name: login_email
    when: [login_email]
    regex: '^[^@\s]+@[^@\s]+\.[a-z]{2,}$'
    reply:
      resposta: Agora informe sua senha.
      parametros: {email: preenchido, senha: coletando}
      then: login_senha
      session: {user: $mensagem}

  - name: login_email_invalido
    when: [login_email]
    regex: '.'
    reply:
      resposta: Email inválido. Tente novamente.
      parametros: {email: erro, senha: pendente}

  - name: login_senha
    when: [login_senha]
    regex: '.'
    reply:
      resposta: __login_sucesso_cliente__
      plain: true
      then: inicio
      session: {login: cliente}

  - name: cadastro
    when: [inicio]
    contains: [cadastro, cadastrar, registrar]
    reply:
      resposta: Você é cliente ou funcionário?
      tipo: opcoes
      opcoes: [Cliente, Funcionário]
      then: cadastro_tipo

  - name: cadastro_funcionario
    when: [cadastro_tipo]
    contains: [funcion]
    reply:
      resposta: O cadastro de funcionários é feito pela administração.
      then: inicio

  - name: cadastro_cliente
    when: [cadastro_tipo]
    contains: [cliente]
    reply:
      resposta: Informe seu nome completo.
      parametros: {nome: coletando, email: pendente, senha: pendente}
      then: cadastro_nome

  - name: cadastro_nome
    when: [cadastro_nome]
    regex: '.'
    reply:
      resposta: Informe seu email.
      parametros: {nome: preenchido, email: coletando, senha: pendente}
      then: cadastro_email

  - name: cadastro_email
    when: [cadastro_email]
    regex: '^[^@\s]+@[^@\s]+\.[a-z]{2,}$'
    reply:
      resposta: Crie uma senha com pelo menos 6 caracteres.
      parametros: {nome: preenchido, email: preenchido, senha: coletando}
      then: cadastro_senha
      session: {user: $mensagem}

  - name: cadastro_email_invalido
    when: [cadastro_email]
    regex: '.'
    reply:
      resposta: Email inválido. Tente novamente.
      parametros: {nome: preenchido, email: erro, senha: pendente}

  - name: cadastro_senha
    when: [cadastro_senha]
    regex: '^.{6,}$'
    reply:
      resposta: __cadastro_sucesso_cliente__
      plain: true
      then: inicio
      session: {login: cliente}

  - name: cadastro_senha_curta
    when: [cadastro_senha]
    regex: '.'
    reply:
      resposta: A senha precisa de pelo menos 6 caracteres.
      parametros: {nome: preenchido, email: preenchido, senha: erro}

fallback:
  resposta: Não entendi. Digite **Login**, **Cadastro** ou **Ajuda**.
`

// DefaultScript returns the built-in script.
func DefaultScript() *Script {
	s, err := ParseScript([]byte(defaultScriptYAML))
	if err != nil {
		panic("devserver: default script: " + err.Error())
	}
	return s
}
