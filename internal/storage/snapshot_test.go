// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/pocketchat/internal/model"
)

func TestLoadMissingFile(t *testing.T) {
	store, err := NewSnapshotStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStoreWithDir: %v", err)
	}

	chats, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chats) != 0 {
		t.Errorf("Load returned %d chats, want 0", len(chats))
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStoreWithDir(dir)
	if err != nil {
		t.Fatalf("NewSnapshotStoreWithDir: %v", err)
	}

	if err := os.WriteFile(store.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing corrupt snapshot: %v", err)
	}

	chats, err := store.Load()
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("Load error = %v, want ErrCorruptSnapshot", err)
	}
	if chats == nil || len(chats) != 0 {
		t.Errorf("Load should recover with an empty collection, got %v", chats)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := NewSnapshotStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStoreWithDir: %v", err)
	}

	first := model.NewChat(model.DefaultModelID)
	first.Title = "Goroutine Basics"
	first.Append(model.NewUserMessage("how do goroutines work"))
	first.Append(model.NewAssistantMessage("they are lightweight threads"))

	second := model.NewChat("mistralai/mistral-7b-instruct:free")

	in := []*model.Chat{first, second}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("Load returned %d chats, want 2", len(out))
	}
	// Order is preserved
	if out[0].ID != first.ID || out[1].ID != second.ID {
		t.Error("chat order not preserved across round trip")
	}
	if out[0].Title != "Goroutine Basics" {
		t.Errorf("Title = %q", out[0].Title)
	}
	if out[0].Model != model.DefaultModelID {
		t.Errorf("Model = %q", out[0].Model)
	}
	if len(out[0].Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(out[0].Messages))
	}
	if out[0].Messages[0].ID != first.Messages[0].ID {
		t.Error("message IDs not preserved")
	}
	if out[0].Messages[0].Role != model.RoleUser {
		t.Errorf("first message role = %q", out[0].Messages[0].Role)
	}
	if len(out[1].Messages) != 0 {
		t.Errorf("empty chat gained %d messages", len(out[1].Messages))
	}
}

func TestSaveOverwrites(t *testing.T) {
	store, err := NewSnapshotStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStoreWithDir: %v", err)
	}

	chat := model.NewChat(model.DefaultModelID)
	if err := store.Save([]*model.Chat{chat}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save([]*model.Chat{}); err != nil {
		t.Fatalf("Save empty: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Load returned %d chats after clearing save, want 0", len(out))
	}
}

func TestNewSnapshotStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := NewSnapshotStoreWithDir(dir)
	if err != nil {
		t.Fatalf("NewSnapshotStoreWithDir: %v", err)
	}

	if err := store.Save([]*model.Chat{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("snapshot file not created: %v", err)
	}
}
