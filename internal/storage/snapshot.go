// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for pocketchat.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/pocketchat/internal/model"
	"github.com/jeranaias/pocketchat/internal/util"
)

// snapshotFile is the fixed snapshot file name inside the data directory.
const snapshotFile = "chats.json"

// ErrCorruptSnapshot indicates the snapshot file exists but cannot be
// decoded. Load recovers from it by starting with an empty collection.
var ErrCorruptSnapshot = errors.New("corrupt chat snapshot")

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

// SnapshotStore persists the whole chat collection as one JSON file.
type SnapshotStore struct {
	// dir is the data directory holding the snapshot
	dir string
}

// NewSnapshotStore creates a store under ~/.pocketchat.
func NewSnapshotStore() (*SnapshotStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	return NewSnapshotStoreWithDir(filepath.Join(home, ".pocketchat"))
}

// NewSnapshotStoreWithDir creates a store with a custom data directory.
func NewSnapshotStoreWithDir(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return filepath.Join(s.dir, snapshotFile)
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the snapshot. A missing file yields an empty collection
// and no error. A corrupt file yields an empty collection and
// ErrCorruptSnapshot so the caller can log the recovery; the corrupt
// file stays on disk until the next save replaces it.
func (s *SnapshotStore) Load() ([]*model.Chat, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return []*model.Chat{}, nil
		}
		return []*model.Chat{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var chats []*model.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return []*model.Chat{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if chats == nil {
		chats = []*model.Chat{}
	}
	return chats, nil
}

// Save writes the whole collection atomically.
func (s *SnapshotStore) Save(chats []*model.Chat) error {
	data, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := util.AtomicWriteFile(s.Path(), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
