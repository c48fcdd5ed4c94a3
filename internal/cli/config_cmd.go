// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/agendeid-chat/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Mostra e altera a configuração",
	}
	cmd.AddCommand(
		newConfigShowCommand(app),
		newConfigPathCommand(app),
		newConfigInitCommand(app),
		newConfigGetCommand(app),
		newConfigSetCommand(app),
		newConfigKeysCommand(),
	)
	return cmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Mostra a configuração efetiva (arquivo, .env, ambiente e flags)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				_, err := fmt.Fprintln(out, app.Config.String())
				return err
			}

			safe := app.Config.Clone()
			if safe.Server.CSRFToken != "" {
				safe.Server.CSRFToken = "[REDACTED]"
			}
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err := out.Write(buf.Bytes())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "saída em JSON")
	return cmd
}

func newConfigPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Mostra o caminho do arquivo de configuração",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFile()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigInitCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Cria o arquivo de configuração com os valores padrão",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFile()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s já existe (use --force para sobrescrever)", path)
			}
			if err := config.EnsureConfigDir(); err != nil {
				return err
			}
			if err := saveConfig(config.Default(), path); err != nil {
				return err
			}
			st := newCLIStyles(cmd.OutOrStdout(), app.Config.UI.Theme)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuração criada em %s\n", st.status(true, false), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "sobrescreve um arquivo existente")
	return cmd
}

func newConfigGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <chave>",
		Short: "Mostra um valor efetivo, por exemplo server.url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Config.Get(args[0])
			if err != nil {
				return err
			}
			if args[0] == "server.csrf_token" && v != "" {
				v = "[REDACTED]"
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newConfigSetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <chave> <valor>",
		Short: "Altera um valor no arquivo de configuração",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFile()
			if err != nil {
				return err
			}

			// Only the file's own values are written back, never the
			// environment or flag overrides.
			cfg := config.Default()
			if _, err := os.Stat(path); err == nil {
				if strings.HasSuffix(path, ".json") {
					err = config.LoadJSON(cfg, path)
				} else {
					err = config.LoadTOML(cfg, path)
				}
				if err != nil {
					return err
				}
			}

			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("valor rejeitado: %w", err)
			}
			if err := config.EnsureConfigDir(); err != nil {
				return err
			}
			if err := saveConfig(cfg, path); err != nil {
				return err
			}
			app.Logger.Info("config updated", "event", "config_set", "key", args[0], "path", path)
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Lista as chaves aceitas por get e set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range config.GetAllKeys() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

// configFile is the file config commands read and write: --config when
// given, otherwise the active default.
func (a *App) configFile() (string, error) {
	if a.ConfigPath != "" {
		return a.ConfigPath, nil
	}
	path, err := config.ActivePath()
	if err != nil {
		return "", errors.New("não foi possível determinar o diretório de configuração")
	}
	return path, nil
}

func saveConfig(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
