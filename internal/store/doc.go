// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store implements the chat session engine for pocketchat.
//
// The store owns the chat collection, dispatches messages to the
// completion client, applies slash commands, and reconciles failures
// into offline state. It is the single writer of chat state; everything
// it hands out is a copy.
//
// # Key Types
//
//   - Store: The session engine
//   - Completer: The completion dependency (implemented by cloud.Client)
//   - Titler: The title dependency (implemented by cloud.TitleGenerator)
//
// # Concurrency
//
// Sends are serialized per chat id, so two concurrent sends to the same
// chat never interleave their request/response pairs. Collection
// mutations take the store lock. Persistence is fire-and-forget: a
// background writer receives coalesced snapshots and logs failures
// without surfacing them.
//
// # Usage
//
//	st, err := store.New(settings, client, titler, snapshots, logger)
//	id, _ := st.CreateChat()
//	err = st.SendMessage(ctx, id, "hello")
package store
