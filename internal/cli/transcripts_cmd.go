// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/agendeid-chat/internal/storage"
	"github.com/jeranaias/agendeid-chat/internal/util"
)

// =============================================================================
// TRANSCRIPTS COMMAND
// =============================================================================

func newTranscriptsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transcripts",
		Aliases: []string{"conversas"},
		Short:   "Lista, mostra e exporta conversas gravadas",
	}
	cmd.AddCommand(
		newTranscriptsListCommand(app),
		newTranscriptsShowCommand(app),
		newTranscriptsExportCommand(app),
		newTranscriptsDeleteCommand(app),
		newTranscriptsPruneCommand(app),
	)
	return cmd
}

// withStore opens the transcript database for one command. It reads the
// configured path even when recording is disabled.
func (a *App) withStore(fn func(*storage.Store) error) error {
	store, err := storage.Open(a.Config.Storage.ResolvedPath())
	if err != nil {
		return fmt.Errorf("abrir conversas: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newTranscriptsListCommand(app *App) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista as conversas mais recentes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *storage.Store) error {
				runs, err := store.ListRuns(limit)
				if err != nil {
					return err
				}
				if asJSON {
					if runs == nil {
						runs = []storage.RunMeta{}
					}
					return NewJSONResponse("transcripts list", runs).Write(cmd.OutOrStdout())
				}
				app.printRuns(cmd.OutOrStdout(), runs)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "quantidade máxima (0 lista todas)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "saída em JSON")
	return cmd
}

func (a *App) printRuns(out io.Writer, runs []storage.RunMeta) {
	st := newCLIStyles(out, a.Config.UI.Theme)
	if len(runs) == 0 {
		fmt.Fprintln(out, st.Dim.Render("Nenhuma conversa gravada."))
		return
	}

	fmt.Fprintf(out, "%s  %s  %s  %s  %s\n",
		st.Dim.Render(util.PadWidth("ID", 8)),
		st.Dim.Render(util.PadWidth("INÍCIO", 16)),
		st.Dim.Render(util.PadWidth("PÁGINA", 20)),
		st.Dim.Render(util.PadWidth("MSGS", 4)),
		st.Dim.Render("PRIMEIRA MENSAGEM"))
	for _, r := range runs {
		preview := r.Preview
		if preview == "" {
			preview = "-"
		}
		fmt.Fprintf(out, "%s  %s  %s  %s  %s\n",
			st.Key.Render(util.PadWidth(r.ShortID(), 8)),
			util.PadWidth(r.StartedAt.Format("2006-01-02 15:04"), 16),
			util.PadWidth(util.TruncateWidth(r.Route, 20), 20),
			util.PadWidth(fmt.Sprint(r.MessageCount), 4),
			preview)
	}
}

func newTranscriptsShowCommand(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Mostra uma conversa",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *storage.Store) error {
				tr, err := store.LoadRun(args[0])
				if err != nil {
					return transcriptError(args[0], err)
				}
				out := cmd.OutOrStdout()
				md := storage.Markdown(tr)
				if raw {
					_, err := io.WriteString(out, md)
					return err
				}
				st := newCLIStyles(out, app.Config.UI.Theme)
				_, err = io.WriteString(out, st.markdown(md, terminalWidth(out)-4))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "imprime o Markdown sem formatação")
	return cmd
}

func newTranscriptsExportCommand(app *App) *cobra.Command {
	var formatName, output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Exporta uma conversa em JSON, Markdown ou HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName = strings.ToLower(formatName)
			if formatName != "json" && formatName != "md" && formatName != "html" {
				return fmt.Errorf("formato %q inválido (use json, md ou html)", formatName)
			}

			return app.withStore(func(store *storage.Store) error {
				tr, err := store.LoadRun(args[0])
				if err != nil {
					return transcriptError(args[0], err)
				}
				path := output
				if path == "" {
					path = "agendeid-" + tr.ShortID() + "." + formatName
				}
				path = util.ExpandHome(path)

				switch formatName {
				case "json":
					err = storage.ExportJSON(tr, path)
				case "html":
					err = storage.ExportHTML(tr, path)
				default:
					err = storage.ExportMarkdown(tr, path)
				}
				if err != nil {
					return err
				}
				app.Logger.Info("transcript exported", "event", "transcript_export", "run_id", tr.ID, "path", path)
				st := newCLIStyles(cmd.OutOrStdout(), app.Config.UI.Theme)
				fmt.Fprintf(cmd.OutOrStdout(), "%s Conversa %s exportada para %s\n", st.status(true, false), tr.ShortID(), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "md", "formato: json, md ou html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "arquivo de saída (padrão: agendeid-<id>.<formato>)")
	return cmd
}

func newTranscriptsDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Apaga uma conversa",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *storage.Store) error {
				if err := store.DeleteRun(args[0]); err != nil {
					return transcriptError(args[0], err)
				}
				st := newCLIStyles(cmd.OutOrStdout(), app.Config.UI.Theme)
				fmt.Fprintf(cmd.OutOrStdout(), "%s Conversa %s apagada\n", st.status(true, false), args[0])
				return nil
			})
		},
	}
}

func newTranscriptsPruneCommand(app *App) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Mantém só as conversas mais recentes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep <= 0 {
				return errors.New("--keep precisa ser positivo")
			}
			return app.withStore(func(store *storage.Store) error {
				removed, err := store.Prune(keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d conversas removidas\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", storage.DefaultMaxRuns, "quantas conversas manter")
	return cmd
}

// transcriptError turns store lookup errors into user-facing messages.
func transcriptError(id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		return fmt.Errorf("conversa %q não encontrada", id)
	case errors.Is(err, storage.ErrAmbiguousID):
		return fmt.Errorf("o prefixo %q corresponde a mais de uma conversa; use mais caracteres", id)
	default:
		return err
	}
}
