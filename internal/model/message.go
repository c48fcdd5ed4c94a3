// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a transcript entry.
type Role string

const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "Você"
	case RoleBot:
		return "AgendeID"
	case RoleSystem:
		return "Sistema"
	default:
		return string(r)
	}
}

// =============================================================================
// USER TYPE
// =============================================================================

// UserType is the account role the server associates with a session.
type UserType int

const (
	UserNone UserType = iota
	UserClient
	UserStaff
)

// String returns the wire name used by the AgendeID backend.
func (u UserType) String() string {
	switch u {
	case UserClient:
		return "cliente"
	case UserStaff:
		return "funcionario"
	default:
		return ""
	}
}

// DisplayName returns a label for status bars.
func (u UserType) DisplayName() string {
	switch u {
	case UserClient:
		return "Cliente"
	case UserStaff:
		return "Funcionário"
	default:
		return "Visitante"
	}
}

// ParseUserType accepts both the Portuguese wire names and their English
// equivalents. Unknown values map to UserNone.
func ParseUserType(s string) UserType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cliente", "client":
		return UserClient
	case "funcionario", "funcionário", "staff":
		return UserStaff
	default:
		return UserNone
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ReplyMeta keeps the raw server fields that accompanied a bot reply.
type ReplyMeta struct {
	Fields map[string]string `json:"fields,omitempty"`
	Kind   string            `json:"kind,omitempty"`
}

// Message represents a single transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Text is the display text. For bot entries it is already sanitized.
	Text string `json:"text"`

	// Reply is set on bot entries that came from a classified server reply.
	Reply *ReplyMeta `json:"reply,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) *Message {
	return NewMessage(RoleUser, text)
}

// NewBotMessage creates a bot message carrying the reply metadata.
func NewBotMessage(text string, meta *ReplyMeta) *Message {
	msg := NewMessage(RoleBot, text)
	msg.Reply = meta
	return msg
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(text string) *Message {
	return NewMessage(RoleSystem, text)
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Clock returns the "HH:MM" timestamp shown under a bubble.
func (m *Message) Clock() string {
	return m.Timestamp.Format("15:04")
}
