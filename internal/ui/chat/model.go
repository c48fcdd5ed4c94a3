// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/format"
	"github.com/jeranaias/agendeid-chat/internal/session"
	"github.com/jeranaias/agendeid-chat/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// startMsg asks Update to start the engine on the event loop.
type startMsg struct{}

// ConfigMsg applies reloaded UI settings to a running model.
type ConfigMsg struct {
	Hyperlinks     bool
	ShowTimestamps bool
	ShowSidebar    bool
	CheckInterval  time.Duration
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat model.
type Options struct {
	Theme   *styles.Theme
	Monitor *session.Monitor
	Logger  *slog.Logger

	// Context bounds every request the engine makes.
	Context context.Context

	MaxMessageLength int
	Hyperlinks       bool
	ShowTimestamps   bool
	ShowSidebar      bool
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	engine  *flow.Engine
	screen  *Screen
	monitor *session.Monitor
	theme   *styles.Theme
	term    *format.Terminal
	logger  *slog.Logger
	ctx     context.Context

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	maxLength      int
	hyperlinks     bool
	showTimestamps bool
	showSidebar    bool
	showHelp       bool
	help           *helpCache

	// quitting is set once the model returned tea.Quit.
	quitting bool
}

// New creates the chat model around an engine whose sink is screen.
func New(engine *flow.Engine, screen *Screen, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme("")
	}
	if opts.Monitor == nil {
		opts.Monitor = session.NewMonitor(session.DefaultConfig())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 1000
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = opts.Theme.InputPrompt
	ti.Placeholder = "Digite sua mensagem..."
	ti.ShowSuggestions = true
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Theme.Spinner

	return Model{
		engine:         engine,
		screen:         screen,
		monitor:        opts.Monitor,
		theme:          opts.Theme,
		term:           format.NewTerminal(opts.Theme.Renderer, opts.Hyperlinks),
		logger:         opts.Logger,
		ctx:            opts.Context,
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		keyMap:         DefaultKeyMap(),
		maxLength:      opts.MaxMessageLength,
		hyperlinks:     opts.Hyperlinks,
		showTimestamps: opts.ShowTimestamps,
		showSidebar:    opts.ShowSidebar,
		help:           &helpCache{},
	}
}

// Init starts the engine, the cursor blink and the session heartbeat.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		func() tea.Msg { return startMsg{} },
		session.TickCmd(),
	)
}

// Route returns the page the chat navigated to, or "" if the user quit.
func (m Model) Route() string {
	return m.screen.Route()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.screen.dirty = true

	case startMsg:
		m.engine.Start(m.ctx)

	case postedMsg:
		msg.fn()

	case session.TickMsg:
		cmds = append(cmds, m.monitor.HandleTick())

	case session.CheckMsg:
		m.logger.Debug("session check", "event", "session_check", "reason", msg.Reason.String())
		m.engine.VerifySession(m.ctx)
		m.engine.CheckConnection(m.ctx)

	case ConfigMsg:
		m.hyperlinks = msg.Hyperlinks
		m.term = format.NewTerminal(m.theme.Renderer, msg.Hyperlinks)
		m.showTimestamps = msg.ShowTimestamps
		m.showSidebar = msg.ShowSidebar
		m.monitor.SetInterval(msg.CheckInterval)
		m.layout()
		m.screen.dirty = true

	case spinner.TickMsg:
		if m.screen.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.screen.dirty = true
		}

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)
		if m.quitting {
			return m, tea.Batch(cmds...)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.sync())
	if m.screen.Route() != "" && !m.quitting {
		m.quitting = true
		m.logger.Info("leaving chat", "event", "tui_navigate", "target", m.screen.Route())
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.monitor.RecordActivity() {
		m.logger.Debug("session check", "event", "session_check", "reason", session.ReasonWake.String())
		m.engine.VerifySession(m.ctx)
		m.engine.CheckConnection(m.ctx)
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keyMap.Quit), key.Matches(msg, m.keyMap.Help):
			m.showHelp = false
			m.screen.dirty = true
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		m.engine.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keyMap.Clear):
		m.engine.ClearChat()
		return m, nil

	case key.Matches(msg, m.keyMap.Sidebar):
		m.showSidebar = !m.showSidebar
		m.layout()
		m.screen.dirty = true
		return m, nil

	case key.Matches(msg, m.keyMap.Suggest):
		idx, _ := suggestionIndex(msg.String())
		return m, m.submitSuggestion(idx)

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input line. A bare number picks an option of the last
// reply when it offered options.
func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	if att := m.screen.LastOptions(); att != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil && n >= 1 && n <= len(att.Options) {
			text = att.Options[n-1].Value
		}
	}

	// Rejected input stays in the line so it can be edited.
	if err := m.engine.Submit(m.ctx, text); err != nil {
		if !errors.Is(err, flow.ErrEmptyMessage) {
			m.logger.Debug("message not sent", "event", "submit_rejected", "error", err)
		}
		return nil
	}
	m.input.Reset()
	return m.spinner.Tick
}

func (m *Model) submitSuggestion(idx int) tea.Cmd {
	suggestions := m.screen.Suggestions()
	if idx < 0 || idx >= len(suggestions) {
		return nil
	}
	if err := m.engine.SubmitSuggestion(m.ctx, suggestions[idx]); err != nil {
		return nil
	}
	return m.spinner.Tick
}

// sync re-renders the transcript after the screen changed and keeps the
// input suggestions in line with the suggestion bar.
func (m *Model) sync() tea.Cmd {
	if !m.screen.takeDirty() {
		return nil
	}

	commands := make([]string, 0, len(m.screen.Suggestions()))
	for _, s := range m.screen.Suggestions() {
		commands = append(commands, s.Command)
	}
	m.input.SetSuggestions(commands)
	m.layout()

	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	m.viewport.SetContent(m.renderTranscript(m.viewport.Width))
	if follow {
		m.viewport.GotoBottom()
	}
	return nil
}

// layout sizes the viewport from the window and the visible chrome.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	w := m.width - m.sidebarWidth()
	if w < 20 {
		w = 20
	}
	h := m.height - m.chromeHeight()
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = m.width - 16
}
