// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/schedule"
	"github.com/jeranaias/agendeid-chat/internal/storage"
	"github.com/jeranaias/agendeid-chat/internal/transport"
)

// =============================================================================
// COLLABORATORS SHARED BY THE TUI AND THE REPL
// =============================================================================

// newClient builds the transport client from the server config. One client
// lives for the whole process so that session cookies survive navigation.
func (a *App) newClient() *transport.Client {
	s := a.Config.Server
	return transport.NewClientWithConfig(&transport.ClientConfig{
		BaseURL:            s.URL,
		ChatPath:           s.ChatPath,
		SessionPath:        s.SessionPath,
		StatusPath:         s.StatusPath,
		PagePath:           s.PagePath,
		CSRFToken:          s.CSRFToken,
		Dialect:            s.Dialect,
		Timeout:            s.Timeout(),
		RateLimitPerMinute: s.RateLimitPerMinute,
		UserAgent:          "agendeid-chat/" + Version,
		Logger:             a.Logger,
	})
}

// startProfile resolves the configured starting page.
func (a *App) startProfile() (flow.Profile, error) {
	p, ok := flow.ProfileFor(a.Config.Chat.Page)
	if !ok {
		return flow.Profile{}, fmt.Errorf("página desconhecida %q", a.Config.Chat.Page)
	}
	return a.withHints(p), nil
}

// profileForRoute resolves a navigation target.
func (a *App) profileForRoute(route string) (flow.Profile, bool) {
	p, ok := flow.ProfileFor(route)
	if !ok {
		return flow.Profile{}, false
	}
	return a.withHints(p), true
}

// withHints turns on local command hints for the staff page when enabled.
func (a *App) withHints(p flow.Profile) flow.Profile {
	if p.RequiredRole == model.UserStaff {
		p.CommandHints = a.Config.Chat.CommandHints
	}
	return p
}

// openStore opens the transcript database when storage is enabled.
// A nil store means recording is off.
func (a *App) openStore() (*storage.Store, error) {
	if !a.Config.Storage.Enabled {
		return nil, nil
	}
	store, err := storage.Open(a.Config.Storage.ResolvedPath())
	if err != nil {
		return nil, err
	}
	if removed, err := store.Prune(storage.DefaultMaxRuns); err != nil {
		a.Logger.Warn("transcript prune failed", "event", "storage_prune_failed", "error", err)
	} else if removed > 0 {
		a.Logger.Info("old transcripts pruned", "event", "storage_pruned", "removed", removed)
	}
	return store, nil
}

// recorderFor starts a transcript run for route. Failures disable recording
// for that page only.
func (a *App) recorderFor(store *storage.Store, route string) flow.Recorder {
	if store == nil {
		return nil
	}
	run, err := store.StartRun(route)
	if err != nil {
		a.Logger.Warn("transcript run not started", "event", "storage_run_failed", "route", route, "error", err)
		return nil
	}
	a.Logger.Debug("transcript run started", "event", "storage_run", "run_id", run.ID, "route", route)
	return run
}

// newEngine wires an engine for one page.
func (a *App) newEngine(profile flow.Profile, client *transport.Client, sink flow.Sink, loop schedule.Loop, rec flow.Recorder) (*flow.Engine, error) {
	c := a.Config.Chat
	return flow.New(flow.Options{
		Transport:           client,
		Session:             client,
		Sink:                sink,
		Recorder:            rec,
		Loop:                loop,
		Logger:              a.Logger,
		Profile:             profile,
		MaxMessageLength:    c.MaxMessageLength,
		MaxRetries:          c.MaxRetries,
		RegistrationKeyword: c.RegistrationKeyword,
		LoginKeyword:        c.LoginKeyword,
	})
}
