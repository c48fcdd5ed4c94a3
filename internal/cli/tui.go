// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agendeid-chat/internal/config"
	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/session"
	"github.com/jeranaias/agendeid-chat/internal/storage"
	"github.com/jeranaias/agendeid-chat/internal/transport"
	"github.com/jeranaias/agendeid-chat/internal/ui/chat"
	"github.com/jeranaias/agendeid-chat/internal/ui/styles"
)

// runTUI runs the full-screen chat. A navigation ends the current screen and
// opens the target page on the same client, so the login cookie carries over.
func (a *App) runTUI(ctx context.Context) error {
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

	client := a.newClient()
	theme := styles.NewTheme(a.Config.UI.Theme)

	for {
		route, err := a.runScreen(ctx, profile, client, store, theme)
		if err != nil {
			return err
		}
		if route == "" {
			return nil
		}

		next, ok := a.profileForRoute(route)
		if !ok {
			a.Logger.Warn("navigation to unknown page", "event", "navigate_unknown", "target", route)
			fmt.Fprintf(os.Stdout, "Redirecionado para %s, que não tem uma página no terminal.\n", route)
			return nil
		}
		profile = next
	}
}

// runScreen runs one page until the user quits (route "") or the engine
// navigates (route set).
func (a *App) runScreen(ctx context.Context, profile flow.Profile, client *transport.Client, store *storage.Store, theme *styles.Theme) (string, error) {
	screenCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := chat.NewProgramLoop()
	screen := chat.NewScreen(a.Config.Chat.DisplayLimit)

	engine, err := a.newEngine(profile, client, screen, loop, a.recorderFor(store, profile.Route))
	if err != nil {
		return "", err
	}

	monitor := session.NewMonitor(session.Config{Interval: a.Config.Chat.ConnectionCheckInterval()})
	m := chat.New(engine, screen, chat.Options{
		Theme:            theme,
		Monitor:          monitor,
		Logger:           a.Logger,
		Context:          screenCtx,
		MaxMessageLength: a.Config.Chat.MaxMessageLength,
		Hyperlinks:       a.Config.UI.Hyperlinks,
		ShowTimestamps:   a.Config.UI.ShowTimestamps,
		ShowSidebar:      a.Config.UI.ShowSidebar,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(screenCtx),
	)
	loop.Attach(p)
	a.watchConfig(screenCtx, p)

	a.Logger.Info("screen opened", "event", "screen_open", "route", profile.Route)
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return "", fmt.Errorf("interface: %w", err)
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return "", nil
	}

	if fm, ok := final.(chat.Model); ok {
		return fm.Route(), nil
	}
	return "", nil
}

// watchConfig forwards UI settings from config file edits to the program.
func (a *App) watchConfig(ctx context.Context, p *tea.Program) {
	if a.ConfigPath == "" {
		return
	}
	if _, err := os.Stat(a.ConfigPath); err != nil {
		return
	}

	w, err := config.NewWatcher(a.ConfigPath,
		func(c *config.Config) {
			a.Logger.Info("config reloaded", "event", "config_reload", "path", a.ConfigPath)
			p.Send(chat.ConfigMsg{
				Hyperlinks:     c.UI.Hyperlinks,
				ShowTimestamps: c.UI.ShowTimestamps,
				ShowSidebar:    c.UI.ShowSidebar,
				CheckInterval:  c.Chat.ConnectionCheckInterval(),
			})
		},
		func(err error) {
			a.Logger.Warn("config reload failed", "event", "config_reload_failed", "error", err)
		},
	)
	if err != nil {
		a.Logger.Debug("config watch unavailable", "event", "config_watch_failed", "error", err)
		return
	}
	go w.Run(ctx)
}
