// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
//
// # Key Types
//
//   - Chat: A conversation with ordered messages and metadata
//   - Message: A single immutable message with role and timestamp
//   - Descriptor: Metadata for a selectable model (provider, format, free tier)
//
// The model catalog is an immutable lookup table initialized at package
// load; callers resolve identifiers with Lookup.
package model
