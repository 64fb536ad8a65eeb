// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// pocketchat.
package config

import (
	"sync"

	"github.com/jeranaias/pocketchat/internal/model"
)

// =============================================================================
// SETTINGS HANDLE
// =============================================================================

// Settings is a thread-safe handle over a loaded Config. The session store
// and the cloud client share one Settings instance; the store updates the
// selected model when the user switches models mid-chat.
type Settings struct {
	mu  sync.RWMutex
	cfg Config
}

// NewSettings wraps a loaded Config in a Settings handle.
func NewSettings(cfg *Config) *Settings {
	return &Settings{cfg: *cfg}
}

// SelectedModel returns the currently selected model identifier.
func (s *Settings) SelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.SelectedModel
}

// SetSelectedModel updates the selected model identifier.
func (s *Settings) SetSelectedModel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SelectedModel = id
}

// APIKey returns the configured API key for a provider, or empty string.
func (s *Settings) APIKey(p model.Provider) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch p {
	case model.ProviderOpenRouter:
		return s.cfg.Providers.OpenRouterKey
	case model.ProviderOpenAI:
		return s.cfg.Providers.OpenAIKey
	case model.ProviderCustom:
		return s.cfg.Providers.CustomKey
	default:
		return ""
	}
}

// CustomEndpoint returns the configured custom endpoint URL.
func (s *Settings) CustomEndpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Providers.CustomEndpoint
}

// Request returns a copy of the request tuning section.
func (s *Settings) Request() RequestConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Request
}

// StorageDir returns the configured snapshot directory override.
func (s *Settings) StorageDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Storage.Dir
}

// Snapshot returns a copy of the underlying Config, suitable for saving.
func (s *Settings) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace swaps the underlying Config wholesale. Used by the watcher when
// the config file changes on disk.
func (s *Settings) Replace(cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = *cfg
}

// Save persists the current settings to the default TOML config file.
func (s *Settings) Save() error {
	snap := s.Snapshot()
	return Save(&snap)
}
