// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for agendeid.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, validation, and hot reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Backend URL, endpoints, dialect and CSRF token
//   - ChatConfig: Page profile, limits, keywords and check interval
//   - Watcher: Reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (AGENDEID_*), including values from .env files
//   - ~/.agendeid/config.toml
//   - ~/.agendeid/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := transport.NewClientWithConfig(&transport.ClientConfig{
//	    BaseURL: cfg.Server.URL,
//	    Timeout: cfg.Server.Timeout(),
//	})
package config
