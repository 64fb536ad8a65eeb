// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for pocketchat.
//
// It contains the atomic file write used by snapshot persistence and
// rune-safe string truncation used for titles and previews.
package util
