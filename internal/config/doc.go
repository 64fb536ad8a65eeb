// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// pocketchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.pocketchat/config.toml
//   - ~/.pocketchat/config.json
//   - Built-in defaults
//
// # Key Types
//
//   - Config: The on-disk configuration shape
//   - Settings: A thread-safe handle over a loaded Config, shared by the
//     session store and the cloud client
//   - Watcher: Reloads Settings when the config file changes on disk
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	settings := config.NewSettings(cfg)
package config
