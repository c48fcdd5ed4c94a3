// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/agendeid-chat/internal/transport"
)

// =============================================================================
// CHECK TYPES
// =============================================================================

// CheckStatus is the outcome of one check.
type CheckStatus int

const (
	// CheckPass indicates the check passed.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the JSON name of the status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Check is one line of the check report.
type Check struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Latency time.Duration `json:"latency_ns,omitempty"`

	status CheckStatus
}

func newCheck(name string, status CheckStatus, msg string) Check {
	return Check{Name: name, Status: status.String(), Message: msg, status: status}
}

// CheckReport is the data of check --json.
type CheckReport struct {
	Server  string  `json:"server"`
	Checks  []Check `json:"checks"`
	Healthy bool    `json:"healthy"`
}

// =============================================================================
// COMMAND
// =============================================================================

func newCheckCommand(app *App) *cobra.Command {
	var asJSON bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verifica o servidor, a sessão e o armazenamento local",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return app.runCheck(ctx, cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "saída em JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "tempo máximo da verificação")
	return cmd
}

// runCheck runs every check and prints the report. An unreachable server is
// returned as an error so the exit code reflects it.
func (a *App) runCheck(ctx context.Context, out io.Writer, asJSON bool) error {
	client := a.newClient()
	checks, serverErr := a.runChecks(ctx, client)

	report := CheckReport{Server: client.BaseURL(), Checks: checks, Healthy: serverErr == nil}
	if asJSON {
		resp := NewJSONResponse("check", report)
		if serverErr != nil {
			resp.Fail(serverErr.Error())
		}
		if err := resp.Write(out); err != nil {
			return err
		}
	} else {
		a.printChecks(out, report)
	}

	if serverErr != nil {
		return fmt.Errorf("servidor %s: %w", client.BaseURL(), serverErr)
	}
	return nil
}

func (a *App) runChecks(ctx context.Context, client *transport.Client) ([]Check, error) {
	var checks []Check

	if err := a.Config.Validate(); err != nil {
		checks = append(checks, newCheck("config", CheckWarn, "configuração com problemas: "+err.Error()))
	} else {
		checks = append(checks, newCheck("config", CheckPass, "configuração válida"))
	}

	start := time.Now()
	pingErr := client.Ping(ctx)
	latency := time.Since(start)
	if pingErr != nil {
		a.Logger.Warn("server check failed", "event", "check_ping_failed", "error", pingErr)
		checks = append(checks, newCheck("server", CheckFail, "servidor não respondeu: "+pingErr.Error()))
	} else {
		c := newCheck("server", CheckPass, fmt.Sprintf("servidor respondeu em %s", latency.Round(time.Millisecond)))
		c.Latency = latency
		checks = append(checks, c)
	}

	if pingErr == nil {
		info, err := client.VerifySession(ctx)
		switch {
		case err != nil:
			checks = append(checks, newCheck("session", CheckWarn, "verificação de sessão falhou: "+err.Error()))
		case info.LoggedIn:
			msg := "sessão ativa como " + info.Role.DisplayName()
			if info.User != "" {
				msg += " (" + info.User + ")"
			}
			checks = append(checks, newCheck("session", CheckPass, msg))
		default:
			checks = append(checks, newCheck("session", CheckPass, "sessão anônima"))
		}
	}

	checks = append(checks, a.storageCheck())
	return checks, pingErr
}

func (a *App) storageCheck() Check {
	if !a.Config.Storage.Enabled {
		return newCheck("storage", CheckWarn, "gravação de conversas desativada")
	}
	path := a.Config.Storage.ResolvedPath()
	store, err := a.openStore()
	if err != nil {
		return newCheck("storage", CheckFail, fmt.Sprintf("não foi possível abrir %s: %v", path, err))
	}
	defer store.Close()

	runs, err := store.ListRuns(0)
	if err != nil {
		return newCheck("storage", CheckWarn, "banco aberto, mas a listagem falhou: "+err.Error())
	}
	return newCheck("storage", CheckPass, fmt.Sprintf("%s (%d conversas)", path, len(runs)))
}

func (a *App) printChecks(out io.Writer, report CheckReport) {
	st := newCLIStyles(out, a.Config.UI.Theme)

	fmt.Fprintln(out)
	fmt.Fprintln(out, st.Title.Render("AgendeID · verificação"))
	fmt.Fprintln(out, st.separator(terminalWidth(out)))
	fmt.Fprintf(out, "  %s %s\n\n", st.Label.Render("Servidor"), st.Value.Render(report.Server))

	passed, warned, failed := 0, 0, 0
	for _, c := range report.Checks {
		switch c.status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		default:
			failed++
		}
		fmt.Fprintf(out, "%s %s\n", st.status(c.status == CheckPass, c.status == CheckWarn), c.Message)
	}

	fmt.Fprintln(out, st.separator(terminalWidth(out)))
	fmt.Fprintln(out, st.Dim.Render(fmt.Sprintf("%d ok, %d avisos, %d falhas", passed, warned, failed)))
	if failed > 0 {
		fmt.Fprintln(out, st.Dim.Render("Use --server para apontar outro endereço."))
	}
	fmt.Fprintln(out)
}
