// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
)

// =============================================================================
// FLOW AND STATE
// =============================================================================

// Flow is a multi-turn interaction mode with its own field checklist.
type Flow int

const (
	FlowNone Flow = iota
	FlowRegistration
	FlowLogin
)

// String returns the flow name.
func (f Flow) String() string {
	switch f {
	case FlowRegistration:
		return "registration"
	case FlowLogin:
		return "login"
	default:
		return "none"
	}
}

// Fields returns the checklist vocabulary of the flow in display order.
func (f Flow) Fields() []string {
	switch f {
	case FlowRegistration:
		return protocol.RegistrationFields()
	case FlowLogin:
		return protocol.LoginFields()
	default:
		return nil
	}
}

// coarseErrorFields are marked Error when a request fails mid-flow.
func (f Flow) coarseErrorFields() []string {
	switch f {
	case FlowRegistration:
		return []string{protocol.FieldName, protocol.FieldEmail}
	case FlowLogin:
		return []string{protocol.FieldEmail, protocol.FieldPassword}
	default:
		return nil
	}
}

// ChecklistTitle is the heading shown above the flow's checklist.
func (f Flow) ChecklistTitle() string {
	switch f {
	case FlowRegistration:
		return "Status do Cadastro"
	case FlowLogin:
		return "Status do Login"
	default:
		return "Status"
	}
}

// State is the externally visible state derived from SessionState.
type State int

const (
	StateAnonymous State = iota
	StateAwaitingRegistration
	StateAwaitingLogin
	StateAuthenticatedClient
	StateAuthenticatedStaff
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingRegistration:
		return "awaiting_registration"
	case StateAwaitingLogin:
		return "awaiting_login"
	case StateAuthenticatedClient:
		return "authenticated_client"
	case StateAuthenticatedStaff:
		return "authenticated_staff"
	default:
		return "anonymous"
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionState is the per-page state mutated only by the Engine.
type SessionState struct {
	Authenticated bool
	Role          model.UserType
	ActiveFlow    Flow

	// FieldStatus holds the checklist. FieldOrder keeps display order: the
	// flow vocabulary first, then keys the server introduced.
	FieldStatus map[string]protocol.FieldStatus
	FieldOrder  []string

	RetryCount int
	MaxRetries int

	History *model.History
}

func newSessionState(maxRetries int) *SessionState {
	return &SessionState{
		FieldStatus: make(map[string]protocol.FieldStatus),
		MaxRetries:  maxRetries,
		History:     model.NewHistory(),
	}
}

// State derives the state machine position.
func (s *SessionState) State() State {
	if s.Authenticated {
		switch s.Role {
		case model.UserStaff:
			return StateAuthenticatedStaff
		case model.UserClient:
			return StateAuthenticatedClient
		}
	}
	switch s.ActiveFlow {
	case FlowRegistration:
		return StateAwaitingRegistration
	case FlowLogin:
		return StateAwaitingLogin
	default:
		return StateAnonymous
	}
}

// startFlow replaces the checklist with the flow's fields, all Pending.
func (s *SessionState) startFlow(f Flow) {
	s.ActiveFlow = f
	s.FieldStatus = make(map[string]protocol.FieldStatus)
	s.FieldOrder = nil
	for _, name := range f.Fields() {
		s.FieldStatus[name] = protocol.StatusPending
		s.FieldOrder = append(s.FieldOrder, name)
	}
}

// mergeFields applies updates by key, creating unknown keys.
func (s *SessionState) mergeFields(updates map[string]protocol.FieldStatus) {
	for _, name := range sortedKeys(updates) {
		if _, ok := s.FieldStatus[name]; !ok {
			s.FieldOrder = append(s.FieldOrder, name)
		}
		s.FieldStatus[name] = updates[name]
	}
}

func (s *SessionState) signIn(role model.UserType) {
	s.Authenticated = true
	s.Role = role
	s.ActiveFlow = FlowNone
}

func (s *SessionState) signOut() {
	s.Authenticated = false
	s.Role = model.UserNone
	s.ActiveFlow = FlowNone
}

func (s *SessionState) checklist() []ChecklistItem {
	items := make([]ChecklistItem, 0, len(s.FieldOrder))
	for _, name := range s.FieldOrder {
		items = append(items, ChecklistItem{
			Field:  name,
			Label:  protocol.FieldLabel(name),
			Status: s.FieldStatus[name],
		})
	}
	return items
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a diagnostic copy of the engine state.
type Snapshot struct {
	Profile       string                          `json:"profile"`
	Route         string                          `json:"route"`
	State         string                          `json:"state"`
	Authenticated bool                            `json:"authenticated"`
	Role          string                          `json:"role"`
	ActiveFlow    string                          `json:"active_flow"`
	FieldStatus   map[string]protocol.FieldStatus `json:"-"`
	Fields        map[string]string               `json:"fields"`
	RetryCount    int                             `json:"retry_count"`
	MaxRetries    int                             `json:"max_retries"`
	Processing    bool                            `json:"processing"`
	Connectivity  string                          `json:"connectivity"`
	HistoryLen    int                             `json:"history_len"`
}
