// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for pocketchat.
package commands

import (
	"sort"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command the session engine understands.
type Command struct {
	// Name is the command name without the leading slash (e.g., "model")
	Name string

	// Description is shown in help output
	Description string

	// Usage shows argument syntax (e.g., "/model <id>")
	Usage string

	// RequiresArgs marks commands that reject empty arguments
	RequiresArgs bool
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// registerBuiltins registers the built-in command set.
func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "clear",
		Description: "Clear the current chat history",
		Usage:       "/clear",
	})
	r.Register(&Command{
		Name:         "model",
		Description:  "Switch the active model for this chat",
		Usage:        "/model <id>",
		RequiresArgs: true,
	})
	r.Register(&Command{
		Name:        "export",
		Description: "Export the current chat as a transcript",
		Usage:       "/export",
	})
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
}

// Get looks up a command by name. Returns nil if not found.
func (r *Registry) Get(name string) *Command {
	return r.commands[name]
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
