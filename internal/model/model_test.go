// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
package model

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// USER TYPE TESTS
// =============================================================================

func TestParseUserType(t *testing.T) {
	tests := []struct {
		in   string
		want UserType
	}{
		{"cliente", UserClient},
		{"client", UserClient},
		{"Funcionario", UserStaff},
		{"funcionário", UserStaff},
		{"staff", UserStaff},
		{"", UserNone},
		{"admin", UserNone},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseUserType(tc.in); got != tc.want {
				t.Errorf("ParseUserType(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestUserType_StringRoundTrip(t *testing.T) {
	for _, u := range []UserType{UserClient, UserStaff} {
		assert.Equal(t, u, ParseUserType(u.String()))
	}
	assert.Equal(t, "", UserNone.String())
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage_AssignsIdentity(t *testing.T) {
	a := NewUserMessage("oi")
	b := NewUserMessage("oi")

	require.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, RoleUser, a.Role)
	assert.False(t, a.Timestamp.IsZero())
}

func TestMessage_Preview(t *testing.T) {
	msg := NewBotMessage("Olá! Bem-vindo ao AgendeID", nil)

	assert.Equal(t, "Olá! Bem-vindo ao AgendeID", msg.Preview(100))
	assert.Equal(t, "Olá! B...", msg.Preview(9))
	assert.Equal(t, "Olá", msg.Preview(3))
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory_AppendAndLookups(t *testing.T) {
	h := NewHistory()
	assert.Nil(t, h.Last())

	h.Append(NewUserMessage("Login"))
	h.Append(NewBotMessage("Informe seu email", &ReplyMeta{Kind: "texto"}))
	h.Append(NewUserMessage("ana@example.com"))
	h.Append(nil)

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "ana@example.com", h.Last().Text)
	assert.Equal(t, "Informe seu email", h.LastOfRole(RoleBot).Text)
	assert.Nil(t, h.LastOfRole(RoleSystem))
	assert.Equal(t, 2, h.CountRole(RoleUser))
}

func TestHistory_MessagesIsACopy(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("a"))

	msgs := h.Messages()
	msgs[0] = nil

	require.NotNil(t, h.Last())
	assert.Equal(t, "a", h.Last().Text)
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("a"))
	h.Clear()
	assert.Equal(t, 0, h.Len())
}

// =============================================================================
// DISPLAY WINDOW TESTS
// =============================================================================

func TestDisplayWindow_EvictsOldestButHistoryKeepsAll(t *testing.T) {
	h := NewHistory()
	w := NewDisplayWindow(DefaultDisplayLimit)

	for i := 0; i < 100; i++ {
		msg := NewBotMessage("msg "+strconv.Itoa(i), nil)
		h.Append(msg)
		assert.Empty(t, w.Push(msg))
	}
	require.Equal(t, 100, w.Len())

	msg := NewBotMessage("msg 100", nil)
	h.Append(msg)
	evicted := w.Push(msg)

	require.Len(t, evicted, 1)
	assert.Equal(t, "msg 0", evicted[0].Text)
	assert.Equal(t, 100, w.Len())
	assert.Equal(t, "msg 1", w.First().Text)
	assert.Equal(t, 101, h.Len())
}

func TestDisplayWindow_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultDisplayLimit, NewDisplayWindow(0).Limit())
	assert.Equal(t, 5, NewDisplayWindow(5).Limit())
}

func TestDisplayWindow_Reset(t *testing.T) {
	w := NewDisplayWindow(2)
	w.Push(NewSystemMessage("a"))
	w.Reset()
	assert.Equal(t, 0, w.Len())
	assert.Nil(t, w.First())
}
