// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for pocketchat.
package commands

import (
	"strings"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the trimmed input starts with /
	IsCommand bool

	// Name is the lowercase command name without the leading slash
	// (e.g., "model")
	Name string

	// Args is the argument portion with runs of whitespace collapsed
	// to single spaces
	Args string

	// Command is the matched registry entry (nil if unknown)
	Command *Command

	// RawInput is the original input string
	RawInput string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser handles parsing of slash commands and their arguments.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input and returns the parse result.
// Returns IsCommand=false if the trimmed input doesn't start with /,
// including for empty or whitespace-only input.
func (p *Parser) Parse(input string) ParseResult {
	result := ParseResult{RawInput: input}

	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return result
	}

	result.IsCommand = true

	fields := strings.Fields(trimmed[1:])
	if len(fields) == 0 {
		// A bare "/" is a command with an empty name; it will never
		// match the registry.
		return result
	}

	result.Name = strings.ToLower(fields[0])
	result.Args = strings.Join(fields[1:], " ")
	result.Command = p.registry.Get(result.Name)

	return result
}
