// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for pocketchat.
//
// The whole chat collection lives in a single JSON snapshot file,
// read once at startup and rewritten whole after every settled
// mutation. Writes are atomic (temp file, fsync, rename) so a crash
// can never leave a half-written snapshot behind.
//
// # Key Types
//
//   - SnapshotStore: Loads and saves the chat collection
//
// # Usage
//
//	store, err := storage.NewSnapshotStore()
//	chats, err := store.Load()
//	err = store.Save(chats)
package storage
