// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/agendeid-chat/internal/config"
	"github.com/jeranaias/agendeid-chat/internal/flow"
	"github.com/jeranaias/agendeid-chat/internal/transport"
)

// Version information (set at build time via -ldflags)
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	serverURL  string
	page       string
	debug      bool
	plain      bool
}

// App carries what every command needs once flags and config are resolved.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger

	flags    globalFlags
	closeLog func() error
}

// NewRootCommand builds the agendeid command tree.
func NewRootCommand() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:   "agendeid",
		Short: "Cliente de terminal do chat AgendeID",
		Long: "Converse com o assistente AgendeID pelo terminal.\n\n" +
			"Sem subcomando, abre a interface de tela cheia quando a saída é um\n" +
			"terminal e o modo texto (REPL) nos demais casos.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.prepare(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.flags.plain || !IsTTY() || !isTerminalWriter(cmd.OutOrStdout()) {
				return app.runREPL(cmd.Context(), newLinerReader(), cmd.OutOrStdout())
			}
			return app.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "arquivo de configuração (padrão: ~/.agendeid/config.toml)")
	pf.StringVar(&app.flags.serverURL, "server", "", "URL do servidor AgendeID")
	pf.StringVar(&app.flags.page, "page", "", "página inicial: public, client ou staff")
	pf.BoolVar(&app.flags.debug, "debug", false, "registra o log em nível debug")
	root.Flags().BoolVar(&app.flags.plain, "plain", false, "usa o modo texto mesmo em um terminal")

	root.AddCommand(
		newChatCommand(app),
		newCheckCommand(app),
		newTranscriptsCommand(app),
		newConfigCommand(app),
		newDevserverCommand(app),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Erro:", err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps an error to a process exit code: 2 when the server could
// not be reached, 1 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, transport.ErrUnreachable), errors.Is(err, transport.ErrTimeout):
		return 2
	default:
		return 1
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// prepare loads the configuration, applies flag overrides and opens the log.
func (a *App) prepare(cmd *cobra.Command) error {
	cfg, path, err := loadConfig(a.flags.configPath)
	if err != nil {
		if cfg == nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Aviso: %v\n", err)
	}

	if a.flags.serverURL != "" {
		cfg.Server.URL = strings.TrimRight(a.flags.serverURL, "/")
	}
	if a.flags.page != "" {
		if _, ok := flow.ProfileFor(a.flags.page); !ok {
			return fmt.Errorf("página desconhecida %q (use public, client ou staff)", a.flags.page)
		}
		cfg.Chat.Page = strings.ToLower(a.flags.page)
	}
	if a.flags.debug {
		cfg.Logging.Level = "debug"
	}

	a.Config = cfg
	a.ConfigPath = path

	logger, closeLog, err := openLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Aviso: log desativado: %v\n", err)
	}
	a.Logger = logger
	a.closeLog = closeLog
	slog.SetDefault(logger)

	a.Logger.Debug("command started", "event", "cli_start", "command", cmd.CommandPath(), "version", Version)
	return nil
}

// loadConfig reads the explicit path when given, otherwise the default
// locations. A non-nil config with an error means defaults were used.
func loadConfig(explicit string) (*config.Config, string, error) {
	if explicit != "" {
		if err := config.LoadDotEnv(".env"); err != nil {
			return nil, "", err
		}
		cfg, err := config.LoadFromPath(explicit)
		return cfg, explicit, err
	}

	cfg, err := config.Load()
	path, pathErr := config.ActivePath()
	if pathErr != nil {
		path = ""
	}
	return cfg, path, err
}

func (a *App) close() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

// =============================================================================
// SMALL COMMANDS
// =============================================================================

func newChatCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Conversa em modo texto, com histórico de linhas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runREPL(cmd.Context(), newLinerReader(), cmd.OutOrStdout())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Mostra a versão",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "agendeid %s (commit %s, %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}
