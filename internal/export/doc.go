// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides chat export functionality for pocketchat.
//
// # Key Types
//
//   - Exporter: Converts a chat to a target format
//   - TranscriptExporter: The plain-text transcript used by /export
//   - MarkdownExporter: Markdown with a metadata header
//   - JSONExporter: The complete chat structure, re-importable
//
// # Usage
//
//	content, err := export.NewTranscriptExporter().Export(chat)
package export
