// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "Olá", 10, "Olá"},
		{"exact", "Olá", 3, "Olá"},
		{"cut", "Nacionalidade", 8, "Nacio..."},
		{"tiny", "Nacionalidade", 2, "Na"},
		{"zero", "abc", 0, ""},
		{"accents", "ããããã", 4, "ã..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateRunes(tc.in, tc.max); got != tc.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "Login", TruncateWidth("Login", 10))
	assert.LessOrEqual(t, StringWidth(TruncateWidth("📅 Agendar atendimento", 10)), 10)
	assert.True(t, strings.HasSuffix(TruncateWidth("Consultar agendamentos", 10), "..."))
	assert.Equal(t, "", TruncateWidth("abc", 0))
}

func TestPadWidth(t *testing.T) {
	assert.Equal(t, 8, StringWidth(PadWidth("✅ CPF", 8)))
}

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 1000, RuneLen(strings.Repeat("é", 1000)))
	assert.Equal(t, 0, RuneLen(""))
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, AtomicWriteFile(path, []byte("one"), 0600))
	require.NoError(t, AtomicWriteFile(path, []byte("two"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".agendeid"), ExpandHome("~/.agendeid"))
	assert.Equal(t, "/etc/agendeid", ExpandHome("/etc/agendeid"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
