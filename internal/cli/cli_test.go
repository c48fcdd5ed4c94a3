// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agendeid-chat/internal/config"
	"github.com/jeranaias/agendeid-chat/internal/devserver"
	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
	"github.com/jeranaias/agendeid-chat/internal/storage"
	"github.com/jeranaias/agendeid-chat/internal/suggest"
	"github.com/jeranaias/agendeid-chat/internal/transport"
)

// =============================================================================
// HELPERS
// =============================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// isolate points HOME at a temp dir and turns colors off.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("AGENDEID_STORAGE", "0")
	return home
}

func startDevserver(t *testing.T) (*devserver.Server, string) {
	t.Helper()
	s := devserver.New(devserver.Options{Logger: quietLogger(), RateLimit: -1})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func newTestApp(serverURL string) *App {
	cfg := config.Default()
	cfg.Server.URL = serverURL
	cfg.Server.RateLimitPerMinute = -1
	cfg.Storage.Enabled = false
	return &App{Config: cfg, Logger: quietLogger()}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// scriptedReader feeds fixed lines to the REPL and then reports EOF.
type scriptedReader struct {
	lines   []string
	history []string
	closed  bool
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) { r.history = append(r.history, item) }

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

// =============================================================================
// SMALL COMMANDS
// =============================================================================

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "agendeid "+Version)
	assert.Contains(t, out, GitCommit)
}

func TestRoot_RejectsUnknownPage(t *testing.T) {
	isolate(t)

	_, err := runCommand(t, "--page", "admin", "version")
	assert.ErrorContains(t, err, "página desconhecida")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 2, exitCode(fmt.Errorf("wrapped: %w", transport.ErrUnreachable)))
	assert.Equal(t, 2, exitCode(transport.ErrTimeout))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

// =============================================================================
// CHECK
// =============================================================================

func TestCheck_AgainstDevserver(t *testing.T) {
	isolate(t)
	_, url := startDevserver(t)

	out, err := runCommand(t, "--server", url, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] servidor respondeu")
	assert.Contains(t, out, "sessão anônima")
	assert.Contains(t, out, "gravação de conversas desativada")
}

func TestCheck_JSON(t *testing.T) {
	isolate(t)
	_, url := startDevserver(t)

	out, err := runCommand(t, "--server", url, "check", "--json")
	require.NoError(t, err)

	var resp struct {
		Success bool        `json:"success"`
		Command string      `json:"command"`
		Data    CheckReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "check", resp.Command)
	assert.True(t, resp.Data.Healthy)
	assert.Equal(t, url, resp.Data.Server)

	names := make([]string, len(resp.Data.Checks))
	for i, c := range resp.Data.Checks {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"config", "server", "session", "storage"}, names)
}

func TestCheck_UnreachableServer(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	out, err := runCommand(t, "--server", url, "check", "--timeout", "3s")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, out, "[X] servidor não respondeu")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_InitSetGet(t *testing.T) {
	home := isolate(t)

	out, err := runCommand(t, "config", "init")
	require.NoError(t, err)
	path := filepath.Join(home, ".agendeid", "config.toml")
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = runCommand(t, "config", "init")
	assert.ErrorContains(t, err, "já existe")

	_, err = runCommand(t, "config", "set", "chat.page", "client")
	require.NoError(t, err)

	out, err = runCommand(t, "config", "get", "chat.page")
	require.NoError(t, err)
	assert.Equal(t, "client\n", out)

	_, err = runCommand(t, "config", "set", "chat.page", "nowhere")
	assert.ErrorContains(t, err, "valor rejeitado")

	out, err = runCommand(t, "config", "get", "chat.page")
	require.NoError(t, err)
	assert.Equal(t, "client\n", out, "rejected values are not written")
}

func TestConfig_ShowRedactsToken(t *testing.T) {
	isolate(t)
	t.Setenv("AGENDEID_CSRF_TOKEN", "segredo-123")

	out, err := runCommand(t, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "segredo-123")
	assert.Contains(t, out, "[REDACTED]")

	out, err = runCommand(t, "config", "get", "server.csrf_token")
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]\n", out)
}

func TestConfig_Keys(t *testing.T) {
	isolate(t)

	out, err := runCommand(t, "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "server.url\n")
	assert.Contains(t, out, "chat.max_message_length\n")
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

func seedTranscript(t *testing.T, path string) string {
	t.Helper()
	store, err := storage.Open(path)
	require.NoError(t, err)
	defer store.Close()

	run, err := store.StartRun(flow.RouteHome)
	require.NoError(t, err)
	require.NoError(t, run.Record(model.NewUserMessage("quero agendar")))
	return run.ID
}

func TestTranscripts_ListShowExportDelete(t *testing.T) {
	home := isolate(t)
	dbPath := filepath.Join(home, "conversas.db")
	t.Setenv("AGENDEID_STORAGE", dbPath)
	id := seedTranscript(t, dbPath)
	short := id[:8]

	out, err := runCommand(t, "transcripts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, short)
	assert.Contains(t, out, "quero agendar")

	out, err = runCommand(t, "transcripts", "show", short, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "# Conversa "+short)
	assert.Contains(t, out, "quero agendar")

	exported := filepath.Join(home, "conversa.json")
	_, err = runCommand(t, "transcripts", "export", short, "--format", "json", "--output", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), id)

	page := filepath.Join(home, "conversa.html")
	_, err = runCommand(t, "transcripts", "export", short, "-f", "html", "-o", page)
	require.NoError(t, err)
	assert.FileExists(t, page)

	_, err = runCommand(t, "transcripts", "export", short, "--format", "pdf")
	assert.ErrorContains(t, err, "formato")

	_, err = runCommand(t, "transcripts", "delete", short)
	require.NoError(t, err)

	out, err = runCommand(t, "transcripts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Nenhuma conversa gravada.")

	_, err = runCommand(t, "transcripts", "show", short)
	assert.ErrorContains(t, err, "não encontrada")
}

// =============================================================================
// CONSOLE SINK
// =============================================================================

func TestConsoleSink_Output(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	sink := newConsoleSink(&buf, newCLIStyles(&buf, "dark"), false, false)

	sink.AppendMessage(model.RoleUser, "oi", flow.StyleNormal)
	assert.Empty(t, buf.String(), "typed input is not echoed")

	sink.echoNextUser()
	sink.AppendMessage(model.RoleUser, "oi", flow.StyleNormal)
	assert.Contains(t, buf.String(), "Você: oi")

	sink.AppendMessage(model.RoleBot, "Escolha uma opção", flow.StyleNormal)
	sink.ShowAttachment(flow.Attachment{
		Kind:    protocol.KindOptions,
		Options: []protocol.Option{{Label: "Cliente", Value: "cliente"}, {Label: "Funcionário", Value: "funcionario"}},
	})
	assert.Contains(t, buf.String(), "AgendeID: Escolha uma opção")
	assert.Contains(t, buf.String(), "1) Cliente")
	assert.Contains(t, buf.String(), "2) Funcionário")

	v, ok := sink.option(2)
	assert.True(t, ok)
	assert.Equal(t, "funcionario", v)
	_, ok = sink.option(3)
	assert.False(t, ok)

	sink.AppendMessage(model.RoleBot, "Outra resposta", flow.StyleNormal)
	_, ok = sink.option(1)
	assert.False(t, ok, "options belong to the newest bot message")

	sink.ShowSuggestions([]suggest.Suggestion{{Label: "Login", Command: "Login"}})
	assert.Contains(t, buf.String(), "/1 Login")
	sg, ok := sink.suggestion(1)
	assert.True(t, ok)
	assert.Equal(t, "Login", sg.Command)
}

func TestConsoleSink_ConnectivityPrintedOnChange(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	sink := newConsoleSink(&buf, newCLIStyles(&buf, "dark"), false, false)

	sink.SetConnectivity(flow.Disconnected)
	first := buf.String()
	sink.SetConnectivity(flow.Disconnected)
	assert.Equal(t, first, buf.String())
	assert.Contains(t, first, flow.Disconnected.String())
}

func TestConsoleSink_SignalsDoNotBlock(t *testing.T) {
	var buf bytes.Buffer
	sink := newConsoleSink(&buf, newCLIStyles(&buf, "dark"), false, false)

	sink.SetBusy(false)
	sink.SetBusy(false)
	sink.Navigate("/a")
	sink.Navigate("/b")

	assert.Equal(t, "/a", <-sink.navigated)
	<-sink.idle
	sink.drainIdle()
}

// =============================================================================
// REPL
// =============================================================================

func runTestREPL(t *testing.T, url string, lines ...string) (string, *scriptedReader) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	app := newTestApp(url)
	in := &scriptedReader{lines: lines}
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, app.runREPL(ctx, in, &out))
	return out.String(), in
}

func TestREPL_LoginRedirectsToClientPage(t *testing.T) {
	isolate(t)
	srv, url := startDevserver(t)

	out, in := runTestREPL(t, url, "login", "ana@example.com", "segredo1")

	assert.Contains(t, out, "Informe seu email")
	assert.Contains(t, out, "Agora informe sua senha")
	assert.Contains(t, out, "Redirecionando em 2 segundos")
	assert.Contains(t, out, "AgendeID · client")
	assert.Contains(t, out, "painel do cliente")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "Até logo!"))

	assert.True(t, in.closed)
	assert.Equal(t, []string{"login", "ana@example.com", "segredo1"}, in.history)
	assert.EqualValues(t, 3, srv.Stats().ChatMessages)
}

func TestREPL_SuggestionAndOptionShortcuts(t *testing.T) {
	isolate(t)
	_, url := startDevserver(t)

	out, _ := runTestREPL(t, url, "/3", "cadastro", "1")

	assert.Contains(t, out, "Você: Ajuda")
	assert.Contains(t, out, "Posso ajudar com")
	assert.Contains(t, out, "1) Cliente")
	assert.Contains(t, out, "Você: Cliente")
	assert.Contains(t, out, "Informe seu nome completo")
}

func TestREPL_LocalCommands(t *testing.T) {
	isolate(t)
	srv, url := startDevserver(t)

	out, _ := runTestREPL(t, url, "/ajuda", "/estado", "/9", "/xyz", "/sair", "nunca enviado")

	assert.Contains(t, out, "/sugestoes")
	assert.Contains(t, out, "Estado da conversa")
	assert.Contains(t, out, "public (/)")
	assert.Contains(t, out, "Não há sugestão 9.")
	assert.Contains(t, out, "Comando desconhecido: /xyz")
	assert.Zero(t, srv.Stats().ChatMessages)
}

func TestREPL_TooLongInputIsNotSent(t *testing.T) {
	isolate(t)
	srv, url := startDevserver(t)

	long := strings.Repeat("a", config.Default().Chat.MaxMessageLength+1)
	runTestREPL(t, url, long)

	assert.Zero(t, srv.Stats().ChatMessages)
}
