// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the title of a chat until title generation (or a
// successful first exchange) replaces it.
const DefaultTitle = "New Chat"

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds a complete conversation with history and metadata.
type Chat struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages in conversation order.
	Messages []Message `json:"messages"`

	// Model this chat currently targets; may change mid-conversation.
	Model string `json:"model"`
}

// NewChat creates an empty chat targeting the given model.
func NewChat(modelID string) *Chat {
	now := time.Now()
	return &Chat{
		ID:        uuid.New().String(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]Message, 0),
		Model:     modelID,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message and bumps UpdatedAt.
func (c *Chat) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// Reset replaces the message list with an empty one, preserving
// identity, title, model and creation time.
func (c *Chat) Reset() {
	c.Messages = make([]Message, 0)
	c.UpdatedAt = time.Now()
}

// MessageCount returns the number of messages in the chat.
func (c *Chat) MessageCount() int {
	return len(c.Messages)
}

// FirstUserContent returns the content of the first user message,
// or empty string if none exists.
func (c *Chat) FirstUserContent() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return msg.Content
		}
	}
	return ""
}

// Clone returns a deep copy of the chat. The store hands out clones so
// callers can never mutate its state through a lookup.
func (c *Chat) Clone() *Chat {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}
