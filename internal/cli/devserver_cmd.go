// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jeranaias/agendeid-chat/internal/devserver"
)

// devserverFlags are the options of the devserver command.
type devserverFlags struct {
	addr       string
	script     string
	latency    time.Duration
	rateLimit  int
	token      string
	dumpScript bool
	watch      bool
}

func newDevserverCommand(app *App) *cobra.Command {
	var f devserverFlags

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Sobe um servidor local que simula o backend do chat",
		Long: "Sobe um servidor HTTP que responde como o backend AgendeID a partir de\n" +
			"um roteiro YAML. Sem --script, usa o roteiro padrão de login e cadastro.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runDevserver(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", devserver.DefaultAddr, "endereço de escuta")
	fl.StringVar(&f.script, "script", "", "roteiro YAML de respostas")
	fl.DurationVar(&f.latency, "latency", 0, "atraso artificial de cada resposta")
	fl.IntVar(&f.rateLimit, "rate-limit", devserver.DefaultRateLimit, "requisições por minuto por cliente (negativo desativa)")
	fl.StringVar(&f.token, "token", "", "token CSRF fixo (padrão: aleatório)")
	fl.BoolVar(&f.dumpScript, "dump-script", false, "imprime o roteiro em YAML e sai")
	fl.BoolVar(&f.watch, "watch", false, "recarrega o roteiro quando o arquivo muda")
	return cmd
}

func (a *App) runDevserver(cmd *cobra.Command, f devserverFlags) error {
	script := devserver.DefaultScript()
	if f.script != "" {
		var err error
		if script, err = devserver.LoadScript(f.script); err != nil {
			return err
		}
	}

	if f.dumpScript {
		data, err := script.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	// The devserver owns the terminal, so its logs go to stderr.
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parseLevel(a.Config.Logging.Level)}))

	srv := devserver.New(devserver.Options{
		Script:    script,
		CSRFToken: f.token,
		RateLimit: f.rateLimit,
		Latency:   f.latency,
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if f.watch && f.script != "" {
		if err := watchScript(ctx, f.script, srv, logger); err != nil {
			logger.Warn("script watch unavailable", "event", "script_watch_failed", "error", err)
		}
	}

	st := newCLIStyles(cmd.OutOrStdout(), a.Config.UI.Theme)
	fmt.Fprintf(cmd.OutOrStdout(), "%s devserver em http://%s (roteiro %q)\n", st.status(true, false), f.addr, script.Name)
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", st.Dim.Render("agendeid --server http://"+f.addr))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(f.addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}
	stats := srv.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%d mensagens de %d visitantes\n", stats.ChatMessages, stats.Visitors)
	return nil
}

// watchScript reloads the script at path into srv on every write. Editors
// that replace the file are handled by watching the directory.
func watchScript(ctx context.Context, path string, srv *devserver.Server, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				script, err := devserver.LoadScript(abs)
				if err != nil {
					logger.Warn("script reload failed", "event", "script_reload_failed", "error", err)
					continue
				}
				srv.SetScript(script)
				logger.Info("script reloaded", "event", "script_reload", "name", script.Name)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if !errors.Is(err, os.ErrClosed) {
					logger.Warn("script watch error", "event", "script_watch_error", "error", err)
				}
			}
		}
	}()
	return nil
}
