// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/agendeid-chat/internal/format"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/protocol"
	"github.com/jeranaias/agendeid-chat/internal/schedule"
	"github.com/jeranaias/agendeid-chat/internal/suggest"
	"github.com/jeranaias/agendeid-chat/internal/transport"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("empty message")

	// ErrBusy is returned while a request is in flight. Nothing changes.
	ErrBusy = errors.New("a message is already being processed")

	// ErrInputTooLong is returned when the message exceeds the length limit.
	// It is never sent.
	ErrInputTooLong = errors.New("message too long")

	// ErrClosed is returned after the engine navigated away or was closed.
	ErrClosed = errors.New("engine closed")
)

// Redirect delays.
const (
	registrationCountdown = 3
	loginCountdown        = 2
	logoutCountdown       = 2

	replyRedirectDelay  = 1500 * time.Millisecond
	replyLogoutDelay    = 2 * time.Second
	forbiddenRedirDelay = 3 * time.Second
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures an Engine. Transport, Sink and Loop are required.
type Options struct {
	Transport Transport
	Session   SessionChecker
	Sink      Sink
	Recorder  Recorder

	Loop      schedule.Loop
	Scheduler schedule.Scheduler // default: schedule.NewTimerScheduler(Loop)
	Runner    schedule.Runner    // default: schedule.GoRunner

	Logger  *slog.Logger
	Profile Profile // default: PublicProfile()

	MaxMessageLength    int    // default: 1000 runes
	MaxRetries          int    // default: 3
	RegistrationKeyword string // default: "cadastro"
	LoginKeyword        string // default: "login"
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine is the conversation state machine for one page.
type Engine struct {
	opts       Options
	logger     *slog.Logger
	classifier *protocol.Classifier
	fold       cases.Caser

	registrationKeyword string
	loginKeyword        string

	state        *SessionState
	processing   bool
	connectivity Connectivity

	// pending is the scheduled navigation, if any.
	pending   schedule.Task
	navigated bool
	closed    bool

	// sessionWarned is set once the session warning was shown and cleared on
	// the next successful check.
	sessionWarned bool
}

// New creates an engine, filling zero options with defaults.
func New(opts Options) (*Engine, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("flow: transport is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("flow: sink is required")
	}
	if opts.Loop == nil {
		return nil, fmt.Errorf("flow: loop is required")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewTimerScheduler(opts.Loop)
	}
	if opts.Runner == nil {
		opts.Runner = schedule.GoRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Profile.Name == "" {
		opts.Profile = PublicProfile()
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 1000
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RegistrationKeyword == "" {
		opts.RegistrationKeyword = "cadastro"
	}
	if opts.LoginKeyword == "" {
		opts.LoginKeyword = "login"
	}

	logger := opts.Logger.With("route", opts.Profile.Route)
	e := &Engine{
		opts:       opts,
		logger:     logger,
		classifier: protocol.NewClassifier(logger),
		fold:       cases.Fold(),
		state:      newSessionState(opts.MaxRetries),
	}
	e.registrationKeyword = e.normalize(opts.RegistrationKeyword)
	e.loginKeyword = e.normalize(opts.LoginKeyword)
	return e, nil
}

// Start shows the welcome message and the initial suggestions.
func (e *Engine) Start(ctx context.Context) {
	if e.closed {
		return
	}
	e.logger.Info("chat started", "event", "chat_start", "profile", e.opts.Profile.Name)
	e.welcome()
	e.setConnectivity(Connected)
}

// Submit sends text to the server. It returns ErrBusy without side effects
// while a request is in flight.
func (e *Engine) Submit(ctx context.Context, text string) error {
	if e.closed {
		return ErrClosed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if e.processing {
		return ErrBusy
	}
	if utf8.RuneCountInString(text) > e.opts.MaxMessageLength {
		e.opts.Sink.AppendMessage(model.RoleBot, format.Render(TextTooLong), StyleError)
		e.logger.Debug("message rejected", "event", "input_too_long", "length", utf8.RuneCountInString(text))
		return ErrInputTooLong
	}

	if e.opts.Profile.CommandHints {
		if hint := commandHint(text); hint != "" {
			e.appendUser(text)
			e.record(model.NewBotMessage(format.Sanitize(hint), nil))
			e.opts.Sink.AppendMessage(model.RoleBot, format.Render(hint), StyleNormal)
			return nil
		}
	}

	e.detectIntent(text)
	e.appendUser(text)

	e.setBusy(true)
	e.opts.Runner.Go(func() {
		payload, err := e.opts.Transport.Send(ctx, text)
		e.opts.Loop.Post(func() { e.complete(payload, err) })
	})
	return nil
}

// SubmitSuggestion submits the command text of s.
func (e *Engine) SubmitSuggestion(ctx context.Context, s suggest.Suggestion) error {
	return e.Submit(ctx, s.Command)
}

// VerifySession asks the server about the login session and reconciles the
// local state with the answer.
func (e *Engine) VerifySession(ctx context.Context) {
	if e.closed || e.opts.Session == nil {
		return
	}
	e.opts.Runner.Go(func() {
		info, err := e.opts.Session.VerifySession(ctx)
		e.opts.Loop.Post(func() { e.applySession(info, err) })
	})
}

// CheckConnection pings the server and updates the connectivity indicator.
func (e *Engine) CheckConnection(ctx context.Context) {
	if e.closed || e.opts.Session == nil {
		return
	}
	e.opts.Runner.Go(func() {
		err := e.opts.Session.Ping(ctx)
		e.opts.Loop.Post(func() { e.applyPing(err) })
	})
}

// ClearChat empties the transcript and history and shows the welcome message
// again. Session state is kept.
func (e *Engine) ClearChat() {
	if e.closed {
		return
	}
	e.state.History.Clear()
	e.opts.Sink.Clear()
	e.welcome()
	if e.state.ActiveFlow != FlowNone {
		e.showChecklist()
	}
}

// Close stops pending timers. Further calls are ignored.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
}

// State returns the state machine position.
func (e *Engine) State() State { return e.state.State() }

// Busy reports whether a request is in flight.
func (e *Engine) Busy() bool { return e.processing }

// Profile returns the page profile.
func (e *Engine) Profile() Profile { return e.opts.Profile }

// History returns the session history.
func (e *Engine) History() *model.History { return e.state.History }

// Connectivity returns the last connectivity state.
func (e *Engine) Connectivity() Connectivity { return e.connectivity }

// Redirecting reports whether a navigation is scheduled but has not happened.
func (e *Engine) Redirecting() bool { return e.pending != nil }

// Snapshot returns a copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Profile:       e.opts.Profile.Name,
		Route:         e.opts.Profile.Route,
		State:         e.state.State().String(),
		Authenticated: e.state.Authenticated,
		Role:          e.state.Role.String(),
		ActiveFlow:    e.state.ActiveFlow.String(),
		FieldStatus:   make(map[string]protocol.FieldStatus, len(e.state.FieldStatus)),
		Fields:        make(map[string]string, len(e.state.FieldStatus)),
		RetryCount:    e.state.RetryCount,
		MaxRetries:    e.state.MaxRetries,
		Processing:    e.processing,
		Connectivity:  e.connectivity.String(),
		HistoryLen:    e.state.History.Len(),
	}
	for name, status := range e.state.FieldStatus {
		s.FieldStatus[name] = status
		s.Fields[name] = status.String()
	}
	return s
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (e *Engine) normalize(s string) string {
	return e.fold.String(norm.NFC.String(s))
}

// detectIntent starts a flow when text mentions a flow keyword. The
// registration keyword wins when both are present.
func (e *Engine) detectIntent(text string) {
	if !e.opts.Profile.DetectFlows || e.state.Authenticated {
		return
	}
	folded := e.normalize(text)

	var f Flow
	switch {
	case strings.Contains(folded, e.registrationKeyword):
		f = FlowRegistration
	case strings.Contains(folded, e.loginKeyword):
		f = FlowLogin
	default:
		return
	}

	e.state.startFlow(f)
	e.logger.Info("flow started", "event", "flow_start", "flow", f.String())
	e.showChecklist()
}

// complete handles the end of a request on the loop goroutine.
func (e *Engine) complete(payload any, err error) {
	defer e.setBusy(false)
	if e.closed {
		return
	}

	if err != nil {
		e.handleFailure(err)
		return
	}

	e.state.RetryCount = 0
	e.setConnectivity(Connected)
	e.handlePayload(payload)
}

// handlePayload classifies payload and applies it. Any failure, including a
// panic, becomes one fixed error message.
func (e *Engine) handlePayload(payload any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("reply handling panicked", "event", "reply_panic", "panic", r)
			e.classifierFailed()
		}
	}()

	res, err := e.classifier.Classify(payload)
	if err != nil {
		e.logger.Warn("malformed reply", "event", "reply_malformed", "error", err)
		e.classifierFailed()
		return
	}
	if res.Command != nil {
		e.applyCommand(res.Command)
		return
	}
	e.applyReply(res.Reply)
}

func (e *Engine) classifierFailed() {
	e.opts.Sink.AppendMessage(model.RoleBot, format.Render(TextClassifierFailed), StyleError)
	e.setConnectivity(Disconnected)
}

// =============================================================================
// COMMANDS AND REPLIES
// =============================================================================

func (e *Engine) applyCommand(cmd protocol.Command) {
	e.logger.Info("command received", "event", "command", "sentinel", cmd.Sentinel())

	var lastText string
	switch c := cmd.(type) {
	case protocol.RegistrationSuccess:
		e.state.signIn(c.Role)
		lastText = registrationText(c.Role)
		e.notify(lastText, StyleSuccess)
		e.countdown(registrationCountdown, HomeRoute(c.Role))

	case protocol.LoginSuccess:
		e.state.signIn(c.Role)
		lastText = TextLoginSuccess
		e.notify(lastText, StyleSuccess)
		e.countdown(loginCountdown, HomeRoute(c.Role))

	case protocol.Logout:
		e.state.signOut()
		lastText = TextLogoutSuccess
		e.notify(lastText, StyleSuccess)
		e.countdown(logoutCountdown, RouteHome)

	case protocol.ValidationError:
		lastText = TextValidationError
		e.notify(lastText, StyleError)

	case protocol.SessionExpired:
		e.state.signOut()
		lastText = TextSessionExpired
		e.notify(lastText, StyleError)

	case protocol.UnknownCommand:
		lastText = c.Text()
		e.logger.Warn("unknown command", "event", "command_unknown", "sentinel", c.Raw)
		e.record(model.NewBotMessage(format.Sanitize(lastText), nil))
		e.opts.Sink.AppendMessage(model.RoleBot, format.Render(lastText), StyleNormal)
	}

	e.showSuggestions(lastText)
}

func (e *Engine) applyReply(r *protocol.ServerReply) {
	var meta *model.ReplyMeta
	if len(r.RawFields) > 0 || r.Kind != protocol.KindText {
		meta = &model.ReplyMeta{Fields: r.RawFields, Kind: r.Kind.String()}
	}
	e.record(model.NewBotMessage(r.Text, meta))

	style := StyleNormal
	switch r.Kind {
	case protocol.KindError:
		style = StyleError
	case protocol.KindSuccess:
		style = StyleSuccess
	}

	markup := format.Format(r.Text)
	if r.Kind == protocol.KindHTML && r.HTML != "" {
		markup = r.HTML
	}
	e.opts.Sink.AppendMessage(model.RoleBot, markup, style)

	switch {
	case len(r.Options) > 0:
		e.opts.Sink.ShowAttachment(Attachment{Kind: r.Kind, Options: r.Options})
	case len(r.Form) > 0:
		e.opts.Sink.ShowAttachment(Attachment{Kind: r.Kind, Form: r.Form})
	}

	if r.HasFields() {
		e.state.mergeFields(r.Fields)
		e.showChecklist()
	}

	if r.Logout {
		e.state.signOut()
	}
	e.showSuggestions(r.RawText)

	switch {
	case r.Redirect != "":
		e.opts.Sink.AppendMessage(model.RoleSystem, TextRedirecting, StyleNormal)
		e.navigateAfter(replyRedirectDelay, r.Redirect)
	case r.Logout:
		e.navigateAfter(replyLogoutDelay, RouteHome)
	}
}

// =============================================================================
// FAILURES
// =============================================================================

func (e *Engine) handleFailure(err error) {
	if e.state.RetryCount < e.state.MaxRetries {
		e.state.RetryCount++
	}
	e.logger.Warn("request failed", "event", "request_failed",
		"error_type", transport.TypeOf(err).String(), "retry_count", e.state.RetryCount, "error", err)

	e.opts.Sink.AppendMessage(model.RoleBot, format.Render(failureText(err)), StyleError)
	e.setConnectivity(e.failedConnectivity())

	if e.state.ActiveFlow != FlowNone {
		updates := make(map[string]protocol.FieldStatus)
		for _, name := range e.state.ActiveFlow.coarseErrorFields() {
			updates[name] = protocol.StatusError
		}
		e.state.mergeFields(updates)
		e.showChecklist()
	}

	if transport.TypeOf(err) == transport.ErrTypeForbidden {
		e.navigateAfter(forbiddenRedirDelay, RouteHome)
	}
}

func (e *Engine) failedConnectivity() Connectivity {
	if e.state.RetryCount >= e.state.MaxRetries {
		return Degraded
	}
	return Disconnected
}

// =============================================================================
// SESSION
// =============================================================================

func (e *Engine) applySession(info transport.SessionInfo, err error) {
	if e.closed {
		return
	}
	profile := e.opts.Profile

	if err != nil {
		e.logger.Warn("session check failed", "event", "session_check_failed", "error", err)
		if profile.Protected() && !e.sessionWarned {
			e.sessionWarned = true
			e.opts.Sink.AppendMessage(model.RoleSystem, format.Render(TextSessionWarning), StyleError)
		}
		return
	}
	e.sessionWarned = false

	if profile.Protected() && (!info.LoggedIn || info.Role != profile.RequiredRole) {
		e.logger.Info("session rejected for page", "event", "session_mismatch",
			"logged_in", info.LoggedIn, "role", info.Role.String())
		e.navigate(RouteHome)
		return
	}

	if info.LoggedIn && info.Role != model.UserNone &&
		(!e.state.Authenticated || e.state.Role != info.Role) {
		e.state.signIn(info.Role)
		e.showSuggestions("")
	}
}

func (e *Engine) applyPing(err error) {
	if e.closed {
		return
	}
	if err != nil {
		e.logger.Debug("status check failed", "event", "ping_failed", "error", err)
		e.setConnectivity(e.failedConnectivity())
		return
	}
	e.state.RetryCount = 0
	e.setConnectivity(Connected)
}

// =============================================================================
// NAVIGATION
// =============================================================================

// countdown announces the redirect every second and navigates when it ends.
// A newer redirect replaces a pending one.
func (e *Engine) countdown(seconds int, route string) {
	e.stopPending()
	e.pending = schedule.Countdown(e.opts.Scheduler, seconds,
		func(n int) {
			if !e.closed {
				e.opts.Sink.AppendMessage(model.RoleSystem, countdownText(n), StyleNormal)
			}
		},
		func() { e.navigate(route) },
	)
}

func (e *Engine) navigateAfter(d time.Duration, route string) {
	e.stopPending()
	e.pending = e.opts.Scheduler.AfterFunc(d, func() { e.navigate(route) })
}

func (e *Engine) stopPending() {
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
}

// navigate performs the navigation side effect at most once and closes the
// engine.
func (e *Engine) navigate(route string) {
	if e.navigated || e.closed {
		return
	}
	e.navigated = true
	e.pending = nil
	e.logger.Info("navigating", "event", "navigate", "target", route)
	e.opts.Sink.Navigate(route)
	e.Close()
}

// =============================================================================
// SINK HELPERS
// =============================================================================

func (e *Engine) welcome() {
	if e.opts.Profile.Welcome != "" {
		e.opts.Sink.AppendMessage(model.RoleBot, e.opts.Profile.Welcome, StyleNormal)
	}
	e.showSuggestions("")
}

func (e *Engine) appendUser(text string) {
	e.record(model.NewUserMessage(text))
	e.opts.Sink.AppendMessage(model.RoleUser, format.Render(text), StyleNormal)
}

// notify shows a fixed command message. It is not part of the history.
func (e *Engine) notify(text string, style Style) {
	e.opts.Sink.AppendMessage(model.RoleBot, format.Render(text), style)
}

func (e *Engine) record(msg *model.Message) {
	e.state.History.Append(msg)
	if e.opts.Recorder == nil {
		return
	}
	if err := e.opts.Recorder.Record(msg); err != nil {
		e.logger.Warn("failed to record message", "event", "record_failed", "error", err)
	}
}

func (e *Engine) showChecklist() {
	e.opts.Sink.ShowChecklist(e.state.ActiveFlow.ChecklistTitle(), e.state.checklist())
}

func (e *Engine) showSuggestions(lastText string) {
	e.opts.Sink.ShowSuggestions(suggest.Compute(suggest.View{
		Authenticated: e.state.Authenticated,
		Role:          e.state.Role,
	}, lastText))
}

func (e *Engine) setBusy(busy bool) {
	e.processing = busy
	e.opts.Sink.SetBusy(busy)
}

func (e *Engine) setConnectivity(c Connectivity) {
	e.connectivity = c
	e.opts.Sink.SetConnectivity(c)
}
