// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/pocketchat/internal/model"
)

// =============================================================================
// TRANSCRIPT EXPORTER
// =============================================================================

// TranscriptExporter renders a chat as a plain-text transcript. This is
// the format produced by the /export command.
type TranscriptExporter struct{}

// NewTranscriptExporter creates a new transcript exporter.
func NewTranscriptExporter() *TranscriptExporter {
	return &TranscriptExporter{}
}

// Export converts a chat to a plain-text transcript.
func (e *TranscriptExporter) Export(chat *model.Chat) ([]byte, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat is nil")
	}
	return []byte(Transcript(chat)), nil
}

// FileExtension returns the file extension for transcripts.
func (e *TranscriptExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for transcripts.
func (e *TranscriptExporter) MimeType() string {
	return "text/plain"
}

// Transcript renders the chat as a plain-text transcript with a metadata
// header and role-prefixed messages separated by blank lines.
func Transcript(chat *model.Chat) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Chat: %s\n", chat.Title))
	sb.WriteString(fmt.Sprintf("Model: %s\n", chat.Model))
	sb.WriteString(fmt.Sprintf("Date: %s\n\n", chat.CreatedAt.Format("Jan 2, 2006 3:04 PM")))

	for _, msg := range chat.Messages {
		sb.WriteString(fmt.Sprintf("%s: %s\n\n", msg.Role.DisplayName(), msg.Content))
	}

	return sb.String()
}
