// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/agendeid-chat/internal/config"
)

// parseLevel maps a config level name to a slog level. Unknown names are info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLogger opens the log file for appending. The terminal belongs to the
// chat, so logs never go to stdout. On failure a discarding logger is
// returned along with the error.
func openLogger(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	path := cfg.ResolvedFile()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return quiet, noop, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return quiet, noop, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	return slog.New(handler).With("pid", os.Getpid()), f.Close, nil
}
