// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/agendeid-chat/internal/config"
	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/schedule"
	"github.com/jeranaias/agendeid-chat/internal/session"
	"github.com/jeranaias/agendeid-chat/internal/storage"
	"github.com/jeranaias/agendeid-chat/internal/transport"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader is the input side of the REPL.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// linerReader reads lines with editing and a history file.
type linerReader struct {
	state       *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	r := &linerReader{state: liner.NewLiner()}
	r.state.SetCtrlCAborts(true)

	if dir, err := config.ConfigDir(); err == nil {
		r.historyFile = filepath.Join(dir, "chat_history")
		if f, err := os.Open(r.historyFile); err == nil {
			r.state.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	return r.state.Prompt(prompt)
}

func (r *linerReader) AppendHistory(item string) {
	r.state.AppendHistory(item)
}

// Close saves the history and restores the terminal.
func (r *linerReader) Close() error {
	if r.historyFile != "" {
		if err := config.EnsureConfigDir(); err == nil {
			if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
				r.state.WriteHistory(f)
				f.Close()
			}
		}
	}
	return r.state.Close()
}

// =============================================================================
// REPL
// =============================================================================

// repl is one text-mode session. Engines run on loop; the input goroutine
// talks to them only through loop.Call.
type repl struct {
	app    *App
	in     lineReader
	sink   *consoleSink
	st     *cliStyles
	loop   *schedule.ChanLoop
	client *transport.Client
	store  *storage.Store

	engine      *flow.Engine
	monitor     *session.Monitor
	stopMonitor context.CancelFunc
	finished    bool
}

// runREPL runs the line-oriented chat until the user quits or input ends.
func (a *App) runREPL(ctx context.Context, in lineReader, out io.Writer) error {
	defer in.Close()

	profile, err := a.startProfile()
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		a.Logger.Warn("transcript storage unavailable", "event", "storage_open_failed", "error", err)
	}
	if store != nil {
		defer store.Close()
	}

	st := newCLIStyles(out, a.Config.UI.Theme)
	loop := schedule.NewChanLoop(64)
	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go loop.Run(loopCtx)
	defer loop.Close()

	r := &repl{
		app:    a,
		in:     in,
		sink:   newConsoleSink(out, st, a.Config.UI.Hyperlinks, a.Config.UI.ShowTimestamps),
		st:     st,
		loop:   loop,
		client: a.newClient(),
		store:  store,
	}
	r.sink.printf("%s\n", st.Dim.Render("Digite /ajuda para ver os comandos. /sair encerra."))

	if err := r.open(ctx, profile); err != nil {
		return err
	}
	defer r.closePage()

	return r.run(ctx)
}

// open starts an engine and a session monitor for profile.
func (r *repl) open(ctx context.Context, profile flow.Profile) error {
	eng, err := r.app.newEngine(profile, r.client, r.sink, r.loop, r.app.recorderFor(r.store, profile.Route))
	if err != nil {
		return err
	}
	r.engine = eng
	r.monitor = session.NewMonitor(session.Config{Interval: r.app.Config.Chat.ConnectionCheckInterval()})

	monitorCtx, cancel := context.WithCancel(ctx)
	r.stopMonitor = cancel

	r.sink.printf("%s\n", r.st.Title.Render("AgendeID · "+profile.Name))
	r.app.Logger.Info("page opened", "event", "repl_page_open", "route", profile.Route)
	r.loop.Call(func() { eng.Start(ctx) })

	monitor := r.monitor
	go monitor.Run(monitorCtx, func(reason session.Reason) {
		r.app.Logger.Debug("session check", "event", "session_check", "reason", reason.String())
		r.loop.Post(func() {
			eng.VerifySession(ctx)
			eng.CheckConnection(ctx)
		})
	})
	return nil
}

// closePage stops the monitor and the engine of the current page.
func (r *repl) closePage() {
	if r.stopMonitor != nil {
		r.stopMonitor()
	}
	if eng := r.engine; eng != nil {
		r.loop.Call(eng.Close)
	}
}

func (r *repl) run(ctx context.Context) error {
	prompt := "você> "
	for !r.finished {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				r.goodbye()
				return nil
			}
			return fmt.Errorf("leitura da entrada: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.in.AppendHistory(line)

		if r.monitor.RecordActivity() {
			eng := r.engine
			r.loop.Post(func() {
				eng.VerifySession(ctx)
				eng.CheckConnection(ctx)
			})
		}

		if r.handle(ctx, line) {
			r.goodbye()
			return nil
		}
	}
	return nil
}

func (r *repl) goodbye() {
	r.sink.printf("%s\n", r.st.Dim.Render("Até logo!"))
}

// handle processes one input line and reports whether the user quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit":
		return true
	}
	if strings.HasPrefix(line, "/") {
		return r.command(ctx, line)
	}

	// A bare number picks an option of the latest list.
	if n, err := strconv.Atoi(line); err == nil {
		if value, ok := r.sink.option(n); ok {
			r.sink.echoNextUser()
			r.submit(ctx, func(e *flow.Engine) error { return e.Submit(ctx, value) })
			return false
		}
	}

	r.submit(ctx, func(e *flow.Engine) error { return e.Submit(ctx, line) })
	return false
}

// command runs a slash command and reports whether the user quit.
func (r *repl) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))

	if n, err := strconv.Atoi(name); err == nil {
		sg, ok := r.sink.suggestion(n)
		if !ok {
			r.sink.printf("%s\n", r.st.Warning.Render(fmt.Sprintf("Não há sugestão %d.", n)))
			return false
		}
		r.sink.echoNextUser()
		r.submit(ctx, func(e *flow.Engine) error { return e.SubmitSuggestion(ctx, sg) })
		return false
	}

	eng := r.engine
	switch name {
	case "sair", "exit", "quit":
		return true
	case "ajuda", "help", "?":
		r.sink.printf("%s\n", renderREPLHelp(r.app.Config.Chat.MaxMessageLength, r.st))
	case "limpar", "clear":
		r.loop.Call(eng.ClearChat)
	case "estado", "status":
		var snap flow.Snapshot
		r.loop.Call(func() { snap = eng.Snapshot() })
		r.printSnapshot(snap)
	case "sugestoes", "sugestões":
		r.printSuggestions()
	case "verificar":
		r.loop.Call(func() {
			eng.VerifySession(ctx)
			eng.CheckConnection(ctx)
		})
	default:
		r.sink.printf("%s\n", r.st.Warning.Render("Comando desconhecido: /"+name+". Digite /ajuda."))
	}
	return false
}

// submit hands input to the engine and waits for the reply and for any
// navigation it schedules.
func (r *repl) submit(ctx context.Context, fn func(e *flow.Engine) error) {
	eng := r.engine
	r.sink.drainIdle()

	var err error
	var busy bool
	r.loop.Call(func() {
		err = fn(eng)
		busy = eng.Busy()
	})

	switch {
	case err == nil:
	case errors.Is(err, flow.ErrEmptyMessage), errors.Is(err, flow.ErrInputTooLong):
		// The engine already told the user, or there was nothing to send.
		return
	case errors.Is(err, flow.ErrBusy):
		r.sink.printf("%s\n", r.st.Warning.Render("Aguarde a resposta anterior."))
		return
	case errors.Is(err, flow.ErrClosed):
		r.followPending(ctx)
		return
	default:
		r.app.Logger.Warn("submit failed", "event", "repl_submit_failed", "error", err)
		return
	}

	if busy {
		select {
		case <-r.sink.idle:
		case <-ctx.Done():
			return
		}
	}

	var redirecting bool
	r.loop.Call(func() { redirecting = eng.Redirecting() })
	if redirecting {
		select {
		case route := <-r.sink.navigated:
			r.follow(ctx, route)
		case <-ctx.Done():
		}
	}
}

// followPending follows a navigation that already happened.
func (r *repl) followPending(ctx context.Context) {
	select {
	case route := <-r.sink.navigated:
		r.follow(ctx, route)
	default:
		r.finished = true
	}
}

// follow switches the REPL to the page at route.
func (r *repl) follow(ctx context.Context, route string) {
	r.closePage()

	next, ok := r.app.profileForRoute(route)
	if !ok {
		r.app.Logger.Warn("navigation to unknown page", "event", "navigate_unknown", "target", route)
		r.sink.printf("Redirecionado para %s, que não tem uma página no terminal.\n", route)
		r.finished = true
		return
	}

	r.sink.printf("%s\n", r.st.separator(terminalWidth(r.sink.out)))
	if err := r.open(ctx, next); err != nil {
		r.sink.printf("%s\n", r.st.Error.Render("Não foi possível abrir a página: "+err.Error()))
		r.finished = true
	}
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func (r *repl) printSnapshot(s flow.Snapshot) {
	row := func(label, value string) {
		r.sink.printf("  %s %s\n", r.st.Label.Render(label), r.st.Value.Render(value))
	}

	r.sink.printf("%s\n", r.st.Title.Render("Estado da conversa"))
	row("Página", s.Profile+" ("+s.Route+")")
	row("Estado", s.State)
	if s.Authenticated {
		row("Sessão", "conectado como "+s.Role)
	} else {
		row("Sessão", "anônima")
	}
	if s.ActiveFlow != "none" {
		row("Fluxo", s.ActiveFlow)
	}
	row("Tentativas", fmt.Sprintf("%d/%d", s.RetryCount, s.MaxRetries))
	row("Conexão", s.Connectivity)
	row("Mensagens", strconv.Itoa(s.HistoryLen))

	if len(s.FieldStatus) > 0 {
		names := make([]string, 0, len(s.FieldStatus))
		for name := range s.FieldStatus {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r.sink.printf("    %s\n", r.st.field(name, s.FieldStatus[name]))
		}
	}
}

func (r *repl) printSuggestions() {
	r.sink.mu.Lock()
	suggestions := r.sink.suggestions
	r.sink.mu.Unlock()

	if len(suggestions) == 0 {
		r.sink.printf("%s\n", r.st.Dim.Render("Nenhuma sugestão no momento."))
		return
	}
	for i, sg := range suggestions {
		r.sink.printf("  %s %s %s\n", r.st.Key.Render(fmt.Sprintf("/%d", i+1)), sg.Label, r.st.Dim.Render("→ "+sg.Command))
	}
}

// replHelpMarkdown is the help text of the text mode.
func replHelpMarkdown(maxLength int) string {
	var b strings.Builder
	b.WriteString("# Ajuda do AgendeID\n\n")
	b.WriteString("| Comando | Ação |\n|---|---|\n")
	b.WriteString("| `/ajuda` | mostra esta ajuda |\n")
	b.WriteString("| `/N` | envia a sugestão número N |\n")
	b.WriteString("| `/sugestoes` | lista as sugestões atuais |\n")
	b.WriteString("| `/estado` | mostra o estado da conversa |\n")
	b.WriteString("| `/verificar` | verifica a sessão e a conexão agora |\n")
	b.WriteString("| `/limpar` | limpa a conversa |\n")
	b.WriteString("| `/sair` | encerra |\n")
	b.WriteString("\n## Dicas\n\n")
	b.WriteString("- Digite **cadastro** para criar sua conta ou **login** para entrar.\n")
	b.WriteString("- Quando a resposta trouxer opções numeradas, envie só o número.\n")
	fmt.Fprintf(&b, "- Mensagens têm no máximo %d caracteres.\n", maxLength)
	return b.String()
}

// renderREPLHelp renders the help for the text mode.
func renderREPLHelp(maxLength int, st *cliStyles) string {
	return st.markdown(replHelpMarkdown(maxLength), DefaultTerminalWidth-4)
}
