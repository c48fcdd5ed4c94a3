// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the agendeid packages.
//
// # Key Functions
//
//   - TruncateRunes, TruncateWidth: UTF-8 and display-width safe truncation
//   - RuneLen: character count used for message length limits
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - ExpandHome: resolves a leading "~" in configured paths
package util
