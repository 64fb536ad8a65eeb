// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// pocketchat.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/pocketchat/internal/model"
	"github.com/jeranaias/pocketchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pocketchat configuration.
type Config struct {
	// General settings
	Version       string `toml:"version" json:"version"`
	SelectedModel string `toml:"selected_model" json:"selected_model"`

	// Provider credentials and endpoints
	Providers ProviderConfig `toml:"providers" json:"providers"`

	// Request tuning
	Request RequestConfig `toml:"request" json:"request"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`
}

// ProviderConfig contains per-provider API keys and the custom endpoint.
type ProviderConfig struct {
	// OpenRouterKey is the OpenRouter API key. Empty routes free models
	// through the keyless fallback endpoint.
	OpenRouterKey string `toml:"openrouter_key" json:"openrouter_key"`
	// OpenAIKey is the OpenAI API key
	OpenAIKey string `toml:"openai_key" json:"openai_key"`
	// CustomKey is the bearer token for the custom endpoint
	CustomKey string `toml:"custom_key" json:"custom_key"`
	// CustomEndpoint is the URL used by models with the custom provider
	CustomEndpoint string `toml:"custom_endpoint" json:"custom_endpoint"`
}

// RequestConfig contains completion request tuning.
type RequestConfig struct {
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// Temperature is the sampling temperature sent to openai-format models
	Temperature float64 `toml:"temperature" json:"temperature"`
	// MaxTokens caps the completion length for openai-format models
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
}

// StorageConfig contains chat persistence configuration.
type StorageConfig struct {
	// Dir overrides the snapshot directory (empty = ~/.pocketchat)
	Dir string `toml:"dir" json:"dir"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:       "1.0.0",
		SelectedModel: model.DefaultModelID,

		Providers: ProviderConfig{
			OpenRouterKey:  "",
			OpenAIKey:      "",
			CustomKey:      "",
			CustomEndpoint: "",
		},

		Request: RequestConfig{
			TimeoutSecs: 60,
			Temperature: 0.7,
			MaxTokens:   2000,
		},

		Storage: StorageConfig{
			Dir: "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the pocketchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pocketchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				cfg.ApplyEnvOverrides()
				if err := cfg.Validate(); err != nil {
					return nil, fmt.Errorf("invalid config: %w", err)
				}
				return cfg, nil
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				cfg.ApplyEnvOverrides()
				if err := cfg.Validate(); err != nil {
					return nil, fmt.Errorf("invalid config: %w", err)
				}
				return cfg, nil
			}
		}
	}

	// Apply environment overrides to defaults
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The file type is determined by extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.SelectedModel == "" {
		cfg.SelectedModel = defaults.SelectedModel
	}
	if cfg.Request.TimeoutSecs == 0 {
		cfg.Request.TimeoutSecs = defaults.Request.TimeoutSecs
	}
	if cfg.Request.Temperature == 0 {
		cfg.Request.Temperature = defaults.Request.Temperature
	}
	if cfg.Request.MaxTokens == 0 {
		cfg.Request.MaxTokens = defaults.Request.MaxTokens
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# pocketchat configuration file")
	fmt.Fprintln(file, "# Generated by pocketchat - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file using an atomic write.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file values.
func (c *Config) ApplyEnvOverrides() {
	// POCKETCHAT_MODEL
	if id := os.Getenv("POCKETCHAT_MODEL"); id != "" {
		c.SelectedModel = id
	}

	// POCKETCHAT_OPENROUTER_KEY
	if key := os.Getenv("POCKETCHAT_OPENROUTER_KEY"); key != "" {
		c.Providers.OpenRouterKey = key
	}

	// POCKETCHAT_OPENAI_KEY
	if key := os.Getenv("POCKETCHAT_OPENAI_KEY"); key != "" {
		c.Providers.OpenAIKey = key
	}

	// POCKETCHAT_CUSTOM_KEY
	if key := os.Getenv("POCKETCHAT_CUSTOM_KEY"); key != "" {
		c.Providers.CustomKey = key
	}

	// POCKETCHAT_CUSTOM_ENDPOINT
	if endpoint := os.Getenv("POCKETCHAT_CUSTOM_ENDPOINT"); endpoint != "" {
		c.Providers.CustomEndpoint = endpoint
	}

	// POCKETCHAT_DATA_DIR
	if dir := os.Getenv("POCKETCHAT_DATA_DIR"); dir != "" {
		c.Storage.Dir = dir
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.SelectedModel == "" {
		errs = append(errs, ValidationError{
			Field:   "selected_model",
			Message: "must not be empty",
		})
	}

	if c.Providers.CustomEndpoint != "" {
		u, err := url.Parse(c.Providers.CustomEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "providers.custom_endpoint",
				Message: fmt.Sprintf("invalid URL '%s', must be http(s)", c.Providers.CustomEndpoint),
			})
		}
	}

	if c.Request.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "request.timeout_secs",
			Message: "cannot be negative",
		})
	}
	if c.Request.Temperature < 0 || c.Request.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "request.temperature",
			Message: fmt.Sprintf("%.2f out of range, must be between 0 and 2", c.Request.Temperature),
		})
	}
	if c.Request.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "request.max_tokens",
			Message: "cannot be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
