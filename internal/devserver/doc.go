// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver is a local stand-in for the AgendeID backend.
//
// It serves the same four endpoints the chat client talks to (the page with
// the csrf-token meta tag, POST /chat, GET /verificar-sessao and GET /status)
// and answers chat messages from an ordered YAML script. There is no language
// understanding: the first rule whose state and pattern match wins.
//
// Script format:
//
//	name: exemplo
//	rules:
//	  - name: login
//	    when: [inicio]
//	    contains: [login, entrar]
//	    reply:
//	      resposta: Informe seu email.
//	      parametros: {email: coletando}
//	      then: login_email
//	fallback:
//	  resposta: Não entendi.
package devserver
