// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for pocketchat.
//
// # Key Types
//
//   - Parser: Splits user input into command name and arguments
//   - Registry: Holds the built-in command set for lookup and help output
//   - Command: A single command definition with usage metadata
//
// Parsing is pure and never fails. Whether an unknown command is rejected
// or echoed back is the caller's decision; the parser only reports what it
// saw.
package commands
