// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the remote completion client for pocketchat.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jeranaias/pocketchat/internal/model"
	"github.com/jeranaias/pocketchat/internal/util"
)

// titleInstruction asks for a short title; the reply is used as-is.
const titleInstruction = "Generate a very short (2-4 words) title for this chat based on the first message. Reply with only the title, no quotes or punctuation."

// maxTitleRunes bounds adopted titles.
const maxTitleRunes = 30

// =============================================================================
// TITLE GENERATOR
// =============================================================================

// TitleGenerator produces short chat titles from the first user message.
// Title generation is best-effort; every failure falls back to the
// default title.
type TitleGenerator struct {
	logger     *zap.Logger
	httpClient *http.Client
	endpoint   string
}

// NewTitleGenerator creates a title generator using the keyless endpoint.
func NewTitleGenerator(logger *zap.Logger) *TitleGenerator {
	return &TitleGenerator{
		logger:     logger,
		httpClient: sharedHTTPClient,
		endpoint:   FallbackURL,
	}
}

// WithHTTPClient sets a custom HTTP client.
func (g *TitleGenerator) WithHTTPClient(hc *http.Client) *TitleGenerator {
	g.httpClient = hc
	return g
}

// WithEndpoint overrides the title endpoint.
func (g *TitleGenerator) WithEndpoint(url string) *TitleGenerator {
	g.endpoint = url
	return g
}

// Title generates a title from the first user message. Never returns an
// error; any failure yields the default title.
func (g *TitleGenerator) Title(ctx context.Context, firstMessage string) string {
	body, err := json.Marshal(minimalRequest{
		Messages: []ChatMessage{
			{Role: model.RoleSystem.String(), Content: titleInstruction},
			{Role: model.RoleUser.String(), Content: firstMessage},
		},
	})
	if err != nil {
		return model.DefaultTitle
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.DefaultTitle
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn("title generation failed", zap.Error(err))
		return model.DefaultTitle
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Warn("title generation rejected", zap.Int("status", resp.StatusCode))
		return model.DefaultTitle
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return model.DefaultTitle
	}

	var parsed struct {
		Completion string `json:"completion"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Completion == "" {
		g.logger.Warn("title generation returned no completion")
		return model.DefaultTitle
	}

	return util.TruncateRunesNoEllipsis(parsed.Completion, maxTitleRunes)
}
